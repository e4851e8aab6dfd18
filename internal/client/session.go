package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/contract"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoSigner is returned when a write is attempted on a read-only session.
var ErrNoSigner = errors.New("client: session has no signer")

// Session is a handle on one deployed PonziContract, optionally bound to a
// signing account.
type Session struct {
	backend Backend
	binding *contract.Binding
	address common.Address
	tx      *Transactor
}

// NewSession attaches to the contract at addr. s may be nil for a
// read-only session.
func NewSession(b Backend, addr common.Address, s *wallet.Signer) *Session {
	sess := &Session{backend: b, binding: contract.MustBinding(), address: addr}
	if s != nil {
		sess.tx = NewTransactor(b, s)
	}
	return sess
}

// Deploy creates a new PonziContract owned by s.
func Deploy(ctx context.Context, b Backend, s *wallet.Signer, p ponzi.Params, gasLimit uint64) (*Session, *chain.TxReceipt, error) {
	binding := contract.MustBinding()
	data, err := binding.PackConstructor(p)
	if err != nil {
		return nil, nil, err
	}
	t := NewTransactor(b, s)
	t.GasLimit = gasLimit
	receipt, err := t.Send(ctx, nil, nil, data)
	if err != nil {
		return nil, receipt, fmt.Errorf("deploying: %w", err)
	}
	sess := &Session{backend: b, binding: binding, address: receipt.ContractAddress, tx: t}
	return sess, receipt, nil
}

// Address returns the contract address.
func (s *Session) Address() common.Address { return s.address }

// Transactor returns the session's transactor, or nil when read-only.
func (s *Session) Transactor() *Transactor { return s.tx }

// Connect returns a session on the same contract acting as signer. Gas
// settings carry over.
func (s *Session) Connect(signer *wallet.Signer) *Session {
	next := &Session{backend: s.backend, binding: s.binding, address: s.address, tx: NewTransactor(s.backend, signer)}
	if s.tx != nil {
		next.tx.GasLimit = s.tx.GasLimit
		next.tx.GasPrice = s.tx.GasPrice
	}
	return next
}

// JoinPonzi registers the signer, paying value split over list.
func (s *Session) JoinPonzi(ctx context.Context, list []common.Address, value *big.Int) (*chain.TxReceipt, error) {
	if list == nil {
		list = []common.Address{}
	}
	return s.transact(ctx, value, "joinPonzi", list)
}

// AddNewAffilliate appends identity to the registry.
func (s *Session) AddNewAffilliate(ctx context.Context, identity common.Address) (*chain.TxReceipt, error) {
	return s.transact(ctx, nil, "addNewAffilliate", identity)
}

// BuyOwnerRole makes newOwner the owner for value.
func (s *Session) BuyOwnerRole(ctx context.Context, newOwner common.Address, value *big.Int) (*chain.TxReceipt, error) {
	return s.transact(ctx, value, "buyOwnerRole", newOwner)
}

// OwnerWithdraw sends amount of the contract balance to dest.
func (s *Session) OwnerWithdraw(ctx context.Context, dest common.Address, amount *big.Int) (*chain.TxReceipt, error) {
	return s.transact(ctx, nil, "ownerWithdraw", dest, amount)
}

// SetDeadline sets the registration deadline to a unix timestamp.
func (s *Session) SetDeadline(ctx context.Context, timestamp uint64) (*chain.TxReceipt, error) {
	return s.transact(ctx, nil, "setDeadline", new(big.Int).SetUint64(timestamp))
}

// AffiliatesCount returns the registry length.
func (s *Session) AffiliatesCount(ctx context.Context) (uint64, error) {
	vals, err := s.call(ctx, "affiliatesCount")
	if err != nil {
		return 0, err
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// AffiliateAt returns registry entry i.
func (s *Session) AffiliateAt(ctx context.Context, i uint64) (common.Address, error) {
	vals, err := s.call(ctx, "affiliates", new(big.Int).SetUint64(i))
	if err != nil {
		return common.Address{}, err
	}
	return vals[0].(common.Address), nil
}

// Affiliates returns the whole registry in order.
func (s *Session) Affiliates(ctx context.Context) ([]common.Address, error) {
	n, err := s.AffiliatesCount(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := s.AffiliateAt(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// IsAffiliate reports whether addr appears in the registry.
func (s *Session) IsAffiliate(ctx context.Context, addr common.Address) (bool, error) {
	vals, err := s.call(ctx, "isAffiliate", addr)
	if err != nil {
		return false, err
	}
	return vals[0].(bool), nil
}

// Owner returns the current owner.
func (s *Session) Owner(ctx context.Context) (common.Address, error) {
	vals, err := s.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return vals[0].(common.Address), nil
}

// RegistrationDeadline returns the deadline timestamp.
func (s *Session) RegistrationDeadline(ctx context.Context) (uint64, error) {
	vals, err := s.call(ctx, "registrationDeadline")
	if err != nil {
		return 0, err
	}
	return vals[0].(*big.Int).Uint64(), nil
}

func (s *Session) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*chain.TxReceipt, error) {
	if s.tx == nil {
		return nil, ErrNoSigner
	}
	data, err := s.binding.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := s.address
	return s.tx.Send(ctx, &to, value, data)
}

func (s *Session) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := s.binding.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{To: &s.address, Data: data}
	if s.tx != nil {
		msg.From = s.tx.From()
	}
	out, err := s.backend.Call(ctx, msg)
	if err != nil {
		return nil, err
	}
	return s.binding.Unpack(method, out)
}
