package contract

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrUnknownMethod is returned when calldata matches no function selector.
	ErrUnknownMethod = errors.New("contract: unknown method selector")

	// ErrNonPayable is returned when value is attached to a non-payable function.
	ErrNonPayable = errors.New("contract: function is not payable")

	// ErrBadCalldata is returned when arguments fail to decode.
	ErrBadCalldata = errors.New("contract: malformed calldata")

	// ErrReverted is returned for revert data that maps to no known error.
	ErrReverted = errors.New("contract: execution reverted")
)

// revertErrors maps ABI custom errors to contract sentinels.
var revertErrors = map[string]error{
	"DeadlinePassed":         ponzi.ErrDeadlinePassed,
	"IncorrectPayment":       ponzi.ErrIncorrectPayment,
	"AffiliateCountMismatch": ponzi.ErrAffiliateCountMismatch,
	"InsufficientPayment":    ponzi.ErrInsufficientPayment,
	"NotOwner":               ponzi.ErrNotOwner,
	"InsufficientBalance":    ponzi.ErrInsufficientBalance,
	"IndexOutOfRange":        ponzi.ErrIndexOutOfRange,
}

// Binding translates between EVM calldata and PonziContract operations.
type Binding struct {
	abi abi.ABI
}

// Result is what a call produced.
type Result struct {
	Method  string
	Return  []byte
	Outcome *ponzi.Outcome
}

// NewBinding parses the PonziContract ABI.
func NewBinding() (*Binding, error) {
	parsed, err := abi.JSON(bytes.NewReader(PonziABIJSON()))
	if err != nil {
		return nil, fmt.Errorf("parsing ponzi ABI: %w", err)
	}
	return &Binding{abi: parsed}, nil
}

// MustBinding is NewBinding for static initialisation.
func MustBinding() *Binding {
	b, err := NewBinding()
	if err != nil {
		panic(err)
	}
	return b
}

// ABI exposes the parsed ABI.
func (b *Binding) ABI() abi.ABI { return b.abi }

// Pack encodes a call to method.
func (b *Binding) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	return data, nil
}

// PackConstructor encodes deployment arguments.
func (b *Binding) PackConstructor(p ponzi.Params) ([]byte, error) {
	return b.Pack("", p.UnitPrice, p.OwnerRolePrice)
}

// UnpackConstructor decodes deployment arguments.
func (b *Binding) UnpackConstructor(data []byte) (ponzi.Params, error) {
	vals, err := b.abi.Constructor.Inputs.Unpack(data)
	if err != nil {
		return ponzi.Params{}, fmt.Errorf("%w: constructor: %v", ErrBadCalldata, err)
	}
	return ponzi.Params{
		UnitPrice:      vals[0].(*big.Int),
		OwnerRolePrice: vals[1].(*big.Int),
	}, nil
}

// MethodName returns the function name for calldata, or "" when unknown.
func (b *Binding) MethodName(input []byte) string {
	if len(input) < 4 {
		return ""
	}
	m, err := b.abi.MethodById(input[:4])
	if err != nil {
		return ""
	}
	return m.RawName
}

// Execute runs calldata against c on behalf of msg.
func (b *Binding) Execute(c *ponzi.Contract, msg ponzi.Msg, input []byte) (*Result, error) {
	if len(input) < 4 {
		return nil, ErrUnknownMethod
	}
	method, err := b.abi.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, input[:4])
	}
	if !method.IsPayable() && msg.Value != nil && msg.Value.Sign() > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonPayable, method.RawName)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadCalldata, method.RawName, err)
	}

	res := &Result{Method: method.RawName, Outcome: &ponzi.Outcome{}}
	var ret []interface{}

	switch method.RawName {
	case "joinPonzi":
		res.Outcome, err = c.JoinPonzi(msg, args[0].([]common.Address))
	case "addNewAffilliate":
		res.Outcome, err = c.AddNewAffilliate(msg, args[0].(common.Address))
	case "buyOwnerRole":
		res.Outcome, err = c.BuyOwnerRole(msg, args[0].(common.Address))
	case "ownerWithdraw":
		res.Outcome, err = c.OwnerWithdraw(msg, args[0].(common.Address), args[1].(*big.Int))
	case "setDeadline":
		res.Outcome, err = c.SetDeadline(msg, saturate(args[0].(*big.Int)))
	case "affiliatesCount":
		ret = append(ret, new(big.Int).SetUint64(c.AffiliatesCount()))
	case "affiliates":
		i := args[0].(*big.Int)
		if !i.IsUint64() {
			return nil, fmt.Errorf("%w: %s of %d", ponzi.ErrIndexOutOfRange, i, c.AffiliatesCount())
		}
		var a common.Address
		a, err = c.AffiliateAt(i.Uint64())
		ret = append(ret, a)
	case "isAffiliate":
		ret = append(ret, c.IsAffiliate(args[0].(common.Address)))
	case "owner":
		ret = append(ret, c.Owner())
	case "registrationDeadline":
		ret = append(ret, new(big.Int).SetUint64(c.Deadline()))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.RawName)
	}
	if err != nil {
		return nil, err
	}

	res.Return, err = method.Outputs.Pack(ret...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s result: %w", method.RawName, err)
	}
	return res, nil
}

// saturate clamps a uint256 to uint64. Block timestamps are uint64, so a
// clamped deadline compares against them exactly like the full value.
func saturate(v *big.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

// Unpack decodes return data of method.
func (b *Binding) Unpack(method string, data []byte) ([]interface{}, error) {
	vals, err := b.abi.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return vals, nil
}

// EncodeRevert returns the revert data for err. Errors that are not
// contract errors revert without data, as Solidity does for failed
// dispatch.
func (b *Binding) EncodeRevert(err error) []byte {
	for name, sentinel := range revertErrors {
		if errors.Is(err, sentinel) {
			id := b.abi.Errors[name].ID
			return append([]byte(nil), id[:4]...)
		}
	}
	return nil
}

// DecodeRevert maps revert data back to the matching sentinel.
func (b *Binding) DecodeRevert(data []byte) error {
	if len(data) < 4 {
		return ErrReverted
	}
	for name, sentinel := range revertErrors {
		id := b.abi.Errors[name].ID
		if bytes.Equal(data[:4], id[:4]) {
			return sentinel
		}
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return fmt.Errorf("%w: %s", ErrReverted, reason)
	}
	return fmt.Errorf("%w: %x", ErrReverted, data)
}

// Logs converts events into EVM logs emitted by addr.
func (b *Binding) Logs(addr common.Address, events []ponzi.Event) []*types.Log {
	logs := make([]*types.Log, 0, len(events))
	for _, ev := range events {
		switch e := ev.(type) {
		case ponzi.OwnershipTransferred:
			logs = append(logs, &types.Log{
				Address: addr,
				Topics: []common.Hash{
					b.abi.Events[e.EventName()].ID,
					common.BytesToHash(e.PreviousOwner.Bytes()),
					common.BytesToHash(e.NewOwner.Bytes()),
				},
			})
		}
	}
	return logs
}

// ParseOwnershipTransferred decodes an OwnershipTransferred log.
func (b *Binding) ParseOwnershipTransferred(l *types.Log) (ponzi.OwnershipTransferred, bool) {
	if len(l.Topics) != 3 || l.Topics[0] != b.abi.Events["OwnershipTransferred"].ID {
		return ponzi.OwnershipTransferred{}, false
	}
	return ponzi.OwnershipTransferred{
		PreviousOwner: common.BytesToAddress(l.Topics[1].Bytes()),
		NewOwner:      common.BytesToAddress(l.Topics[2].Bytes()),
	}, true
}
