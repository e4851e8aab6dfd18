// Package ponzi implements the PonziContract ledger: an affiliate registry
// fed by paid joins, an owner role that anyone can buy, and owner-controlled
// withdrawals from the undifferentiated contract balance.
//
// The flaws of the original contract are reproduced on purpose: join
// payouts follow the caller-supplied list (duplicates included), the
// registry accepts repeated identities from any caller, and the owner role
// purchase is not escrowed, so a buyer can withdraw it straight back.
package ponzi

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Contract is a single deployed PonziContract. Every exported method is
// atomic: it either applies all of its state changes or none of them.
type Contract struct {
	mu sync.RWMutex

	params     Params
	owner      common.Address
	deadline   uint64
	affiliates []common.Address
	members    map[common.Address]int // registry entries per identity
	balance    *big.Int
}

// New deploys a contract owned by deployer.
func New(deployer common.Address, p Params) (*Contract, *Outcome) {
	c := &Contract{
		params:  copyParams(p),
		owner:   deployer,
		members: make(map[common.Address]int),
		balance: new(big.Int),
	}
	return c, &Outcome{
		Events: []Event{OwnershipTransferred{NewOwner: deployer}},
		Writes: 1,
	}
}

// Restore rebuilds a contract from a snapshot.
func Restore(s State) *Contract {
	c := &Contract{
		params:     copyParams(s.Params),
		owner:      s.Owner,
		deadline:   s.Deadline,
		affiliates: append([]common.Address(nil), s.Affiliates...),
		members:    make(map[common.Address]int, len(s.Affiliates)),
		balance:    new(big.Int),
	}
	if s.Balance != nil {
		c.balance.Set(s.Balance)
	}
	for _, a := range c.affiliates {
		c.members[a]++
	}
	return c
}

// JoinPonzi registers msg.From as a new affiliate after paying UnitPrice to
// each identity in list, in list order. The list must be as long as the
// registry and the attached value must be len(list) × UnitPrice. Nothing
// checks that list names the actual registry members, or names anyone only
// once.
func (c *Contract) JoinPonzi(msg Msg, list []common.Address) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Timestamp > c.deadline {
		return nil, fmt.Errorf("%w: now %d, deadline %d", ErrDeadlinePassed, msg.Timestamp, c.deadline)
	}
	want := new(big.Int).Mul(big.NewInt(int64(len(list))), c.params.UnitPrice)
	if msg.value().Cmp(want) != 0 {
		return nil, fmt.Errorf("%w: expected %s wei, got %s", ErrIncorrectPayment, want, msg.value())
	}
	if len(list) != len(c.affiliates) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrAffiliateCountMismatch, len(c.affiliates), len(list))
	}

	c.balance.Add(c.balance, msg.value())
	out := &Outcome{Transfers: make([]Transfer, 0, len(list))}
	for _, a := range list {
		c.balance.Sub(c.balance, c.params.UnitPrice)
		out.Transfers = append(out.Transfers, Transfer{To: a, Amount: new(big.Int).Set(c.params.UnitPrice)})
	}
	c.register(msg.From)
	out.Writes = 2
	return out, nil
}

// AddNewAffilliate appends identity to the registry. Anyone may call it,
// for free, any number of times.
func (c *Contract) AddNewAffilliate(msg Msg, identity common.Address) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.register(identity)
	return &Outcome{Writes: 2}, nil
}

// BuyOwnerRole hands the owner role to newOwner for at least OwnerRolePrice.
// The payment joins the general balance.
func (c *Contract) BuyOwnerRole(msg Msg, newOwner common.Address) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.value().Cmp(c.params.OwnerRolePrice) < 0 {
		return nil, fmt.Errorf("%w: need %s wei, got %s", ErrInsufficientPayment, c.params.OwnerRolePrice, msg.value())
	}

	prev := c.owner
	c.owner = newOwner
	c.balance.Add(c.balance, msg.value())
	return &Outcome{
		Events: []Event{OwnershipTransferred{PreviousOwner: prev, NewOwner: newOwner}},
		Writes: 1,
	}, nil
}

// OwnerWithdraw sends amount of the contract balance to dest.
func (c *Contract) OwnerWithdraw(msg Msg, dest common.Address, amount *big.Int) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.From != c.owner {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, msg.From.Hex())
	}
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Cmp(c.balance) > 0 {
		return nil, fmt.Errorf("%w: have %s wei, requested %s", ErrInsufficientBalance, c.balance, amount)
	}

	c.balance.Sub(c.balance, amount)
	return &Outcome{
		Transfers: []Transfer{{To: dest, Amount: new(big.Int).Set(amount)}},
	}, nil
}

// SetDeadline overwrites the registration deadline. Any value is accepted.
func (c *Contract) SetDeadline(msg Msg, timestamp uint64) (*Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.From != c.owner {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, msg.From.Hex())
	}
	c.deadline = timestamp
	return &Outcome{Writes: 1}, nil
}

// AffiliatesCount returns the registry size, duplicates included.
func (c *Contract) AffiliatesCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(len(c.affiliates))
}

// AffiliateAt returns the i-th registry entry.
func (c *Contract) AffiliateAt(i uint64) (common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i >= uint64(len(c.affiliates)) {
		return common.Address{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(c.affiliates))
	}
	return c.affiliates[i], nil
}

// Affiliates returns a copy of the registry in insertion order.
func (c *Contract) Affiliates() []common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]common.Address(nil), c.affiliates...)
}

// IsAffiliate reports whether addr has at least one registry entry.
func (c *Contract) IsAffiliate(addr common.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.members[addr] > 0
}

// Owner returns the current owner.
func (c *Contract) Owner() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// Deadline returns the registration deadline as a unix timestamp.
func (c *Contract) Deadline() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deadline
}

// Balance returns the value held by the contract.
func (c *Contract) Balance() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.balance)
}

// Params returns the pricing constants.
func (c *Contract) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyParams(c.params)
}

// Snapshot returns a deep copy of the ledger state.
func (c *Contract) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Owner:      c.owner,
		Deadline:   c.deadline,
		Affiliates: append([]common.Address(nil), c.affiliates...),
		Balance:    new(big.Int).Set(c.balance),
		Params:     copyParams(c.params),
	}
}

// Clone returns an independent contract with the same state.
func (c *Contract) Clone() *Contract {
	return Restore(c.Snapshot())
}

func (c *Contract) register(a common.Address) {
	c.affiliates = append(c.affiliates, a)
	c.members[a]++
}

func copyParams(p Params) Params {
	out := Params{UnitPrice: new(big.Int), OwnerRolePrice: new(big.Int)}
	if p.UnitPrice != nil {
		out.UnitPrice.Set(p.UnitPrice)
	}
	if p.OwnerRolePrice != nil {
		out.OwnerRolePrice.Set(p.OwnerRolePrice)
	}
	return out
}
