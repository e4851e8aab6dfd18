package chain

import (
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/ethereum/go-ethereum/params"
)

// IntrinsicGas is the flat cost of a transaction before execution.
func IntrinsicGas(data []byte, creation bool) uint64 {
	gas := params.TxGas
	if creation {
		gas = params.TxGasContractCreation
	}
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}

// executionGas prices an outcome: one SSTORE per written slot plus the
// value-call surcharge for every outgoing transfer.
func executionGas(out *ponzi.Outcome) uint64 {
	if out == nil {
		return 0
	}
	return uint64(out.Writes)*params.SstoreSetGas +
		uint64(len(out.Transfers))*params.CallValueTransferGas
}
