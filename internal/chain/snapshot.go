package chain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is a full copy of the chain state, suitable for persisting.
type Snapshot struct {
	ChainID     *big.Int
	BlockNumber uint64
	BlockTime   uint64
	TimeOffset  time.Duration
	Accounts    map[common.Address]Account
	Contracts   map[common.Address]ContractState
	Receipts    []*TxReceipt
}

// ContractState is one deployed contract inside a Snapshot.
type ContractState struct {
	Creator common.Address
	Block   uint64
	State   ponzi.State
}

// Snapshot copies the current state.
func (b *Backend) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Snapshot{
		ChainID:     new(big.Int).Set(b.chainID),
		BlockNumber: b.blockNumber,
		BlockTime:   b.blockTime,
		TimeOffset:  b.offset,
		Accounts:    make(map[common.Address]Account, len(b.accounts)),
		Contracts:   make(map[common.Address]ContractState, len(b.contracts)),
		Receipts:    append([]*TxReceipt(nil), b.receipts...),
	}
	for addr, acct := range b.accounts {
		s.Accounts[addr] = Account{Balance: new(big.Int).Set(acct.Balance), Nonce: acct.Nonce}
	}
	for addr, dep := range b.contracts {
		s.Contracts[addr] = ContractState{Creator: dep.creator, Block: dep.block, State: dep.contract.Snapshot()}
	}
	return s
}

// Restore replaces the current state with s. The chain id of s must match.
func (b *Backend) Restore(s *Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.ChainID != nil && s.ChainID.Cmp(b.chainID) != 0 {
		return fmt.Errorf("%w: snapshot %s, backend %s", ErrInvalidChainID, s.ChainID, b.chainID)
	}

	b.blockNumber = s.BlockNumber
	b.blockTime = s.BlockTime
	b.offset = s.TimeOffset

	b.accounts = make(map[common.Address]*Account, len(s.Accounts))
	for addr, acct := range s.Accounts {
		bal := new(big.Int)
		if acct.Balance != nil {
			bal.Set(acct.Balance)
		}
		b.accounts[addr] = &Account{Balance: bal, Nonce: acct.Nonce}
	}

	b.contracts = make(map[common.Address]*deployment, len(s.Contracts))
	for addr, cs := range s.Contracts {
		b.contracts[addr] = &deployment{contract: ponzi.Restore(cs.State), creator: cs.Creator, block: cs.Block}
	}

	b.receipts = append([]*TxReceipt(nil), s.Receipts...)
	b.byHash = make(map[common.Hash]*TxReceipt, len(s.Receipts))
	for _, r := range s.Receipts {
		b.byHash[r.TxHash] = r
	}
	return nil
}
