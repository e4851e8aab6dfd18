package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxReceipt records the result of a mined transaction.
type TxReceipt struct {
	TxHash            common.Hash
	From              common.Address
	To                *common.Address // nil for contract creation
	ContractAddress   common.Address  // set when a contract was deployed
	Method            string          // decoded function name, "" for plain transfers
	Value             *big.Int
	Status            uint64 // types.ReceiptStatusSuccessful | types.ReceiptStatusFailed
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	BlockNumber       uint64
	BlockTime         uint64
	Logs              []*types.Log
	RevertData        []byte // ABI custom-error data, empty for data-less reverts
	RevertReason      string
}

// Succeeded reports whether the transaction executed without reverting.
func (r *TxReceipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// Fee is GasUsed × EffectiveGasPrice.
func (r *TxReceipt) Fee() *big.Int {
	if r.EffectiveGasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(r.GasUsed), r.EffectiveGasPrice)
}
