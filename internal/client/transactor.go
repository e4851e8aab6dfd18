// Package client submits signed PonziContract transactions to a backend
// and decodes read-only calls, the way an ethers contract handle does for
// a test suite.
package client

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the chain surface a client needs.
type Backend interface {
	ChainID() *big.Int
	SuggestGasPrice() *big.Int
	NonceAt(addr common.Address) uint64
	SendTransaction(ctx context.Context, tx *types.Transaction) (*chain.TxReceipt, error)
	Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	// SenderLock is held across nonce lookup and submission, so any number
	// of goroutines can send from one account.
	SenderLock(addr common.Address) *sync.Mutex
}

// Transactor builds, signs and sends transactions for one account.
type Transactor struct {
	backend  Backend
	signer   *wallet.Signer
	GasLimit uint64   // 0 estimates per transaction
	GasPrice *big.Int // nil uses the backend suggestion
}

// NewTransactor returns a transactor that estimates gas.
func NewTransactor(b Backend, s *wallet.Signer) *Transactor {
	return &Transactor{backend: b, signer: s}
}

// From returns the sending address.
func (t *Transactor) From() common.Address { return t.signer.Address() }

// Send signs and submits a transaction carrying data and value to to, or a
// contract creation when to is nil.
func (t *Transactor) Send(ctx context.Context, to *common.Address, value *big.Int, data []byte) (*chain.TxReceipt, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := t.signer.Address()

	gas := t.GasLimit
	if gas == 0 {
		est, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: to, Value: value, Data: data})
		if err != nil {
			return nil, err
		}
		gas = est
	}
	price := t.GasPrice
	if price == nil {
		price = t.backend.SuggestGasPrice()
	}

	mu := t.backend.SenderLock(from)
	mu.Lock()
	defer mu.Unlock()

	chainID := t.backend.ChainID()
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     t.backend.NonceAt(from),
		GasTipCap: price,
		GasFeeCap: price,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	})
	signed, err := t.signer.Sign(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("signing as %s: %w", t.signer.Name(), err)
	}
	return t.backend.SendTransaction(ctx, signed)
}
