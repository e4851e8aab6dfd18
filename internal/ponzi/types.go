package ponzi

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// Params are the pricing constants fixed at deployment.
type Params struct {
	UnitPrice      *big.Int // wei owed per named affiliate on join
	OwnerRolePrice *big.Int // minimum wei for buyOwnerRole
}

// DefaultParams returns 1 ether per affiliate and a 10 ether owner role.
func DefaultParams() Params {
	return Params{
		UnitPrice:      big.NewInt(params.Ether),
		OwnerRolePrice: new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether)),
	}
}

// Msg is the call context: who is calling, what they attached and the
// current block time.
type Msg struct {
	From      common.Address
	Value     *big.Int
	Timestamp uint64
}

func (m Msg) value() *big.Int {
	if m.Value == nil {
		return new(big.Int)
	}
	return m.Value
}

// Transfer is a value movement out of the contract that the execution
// environment must apply to the recipient.
type Transfer struct {
	To     common.Address
	Amount *big.Int
}

// Event is a log emitted by a contract operation.
type Event interface {
	EventName() string
}

// OwnershipTransferred is emitted whenever the owner identity changes,
// including at deployment.
type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

// EventName implements Event.
func (OwnershipTransferred) EventName() string { return "OwnershipTransferred" }

// Outcome describes the side effects of a successful operation.
type Outcome struct {
	Transfers []Transfer
	Events    []Event
	Writes    int // storage slots written
}

// TotalOut returns the sum of all outgoing transfers.
func (o *Outcome) TotalOut() *big.Int {
	total := new(big.Int)
	if o == nil {
		return total
	}
	for _, t := range o.Transfers {
		total.Add(total, t.Amount)
	}
	return total
}

// State is a serializable copy of the ledger.
type State struct {
	Owner      common.Address
	Deadline   uint64
	Affiliates []common.Address
	Balance    *big.Int
	Params     Params
}
