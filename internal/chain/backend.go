// Package chain is a single-node, automining EVM-style execution
// environment for PonziContract deployments. It plays the part a local
// development node plays for a contract test suite: it owns account
// balances and nonces, stamps each block with the time oracle, moves value
// atomically with each call and rolls a reverted call back as a unit.
package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/contract"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

// DefaultChainID is the local development chain id.
const DefaultChainID = 31337

// Coinbase receives every transaction fee.
var Coinbase = common.HexToAddress("0xC014BA5EC014ba5ec014Ba5EC014ba5Ec014bA5E")

// Account is the externally visible state of an address.
type Account struct {
	Balance *big.Int
	Nonce   uint64
}

type deployment struct {
	contract *ponzi.Contract
	creator  common.Address
	block    uint64
}

// Backend is the simulated chain. All exported methods are safe for
// concurrent use; transactions are executed one at a time.
type Backend struct {
	mu sync.Mutex

	chainID  *big.Int
	signer   types.Signer
	binding  *contract.Binding
	clock    Clock
	offset   time.Duration
	gasPrice *big.Int
	log      logrus.FieldLogger

	accounts    map[common.Address]*Account
	contracts   map[common.Address]*deployment
	blockNumber uint64
	blockTime   uint64
	receipts    []*TxReceipt
	byHash      map[common.Hash]*TxReceipt

	senders sync.Map // common.Address -> *sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock sets the time oracle.
func WithClock(c Clock) Option {
	return func(b *Backend) { b.clock = c }
}

// WithLogger sets the transaction logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Backend) { b.log = l }
}

// WithChainID sets the chain id transactions must be signed for.
func WithChainID(id int64) Option {
	return func(b *Backend) { b.chainID = big.NewInt(id) }
}

// WithGasPrice sets the price returned by SuggestGasPrice.
func WithGasPrice(wei *big.Int) Option {
	return func(b *Backend) { b.gasPrice = new(big.Int).Set(wei) }
}

// NewBackend creates an empty chain at block 0.
func NewBackend(opts ...Option) *Backend {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	b := &Backend{
		chainID:   big.NewInt(DefaultChainID),
		binding:   contract.MustBinding(),
		clock:     SystemClock{},
		gasPrice:  big.NewInt(params.GWei),
		log:       discard,
		accounts:  make(map[common.Address]*Account),
		contracts: make(map[common.Address]*deployment),
		byHash:    make(map[common.Hash]*TxReceipt),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.signer = types.NewLondonSigner(b.chainID)
	return b
}

// ChainID returns the chain id.
func (b *Backend) ChainID() *big.Int { return new(big.Int).Set(b.chainID) }

// Signer returns the transaction signer for this chain.
func (b *Backend) Signer() types.Signer { return b.signer }

// Binding returns the ABI binding used to dispatch calls.
func (b *Backend) Binding() *contract.Binding { return b.binding }

// SuggestGasPrice returns the configured gas price.
func (b *Backend) SuggestGasPrice() *big.Int { return new(big.Int).Set(b.gasPrice) }

// Fund credits amount to addr out of thin air, like a genesis allocation.
func (b *Backend) Fund(addr common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.account(addr)
	acct.Balance.Add(acct.Balance, amount)
	b.log.WithFields(logrus.Fields{"account": addr.Hex(), "amount": amount.String()}).Debug("funded")
}

// BalanceAt returns the balance of addr. For a contract this includes the
// value its ledger holds.
func (b *Backend) BalanceAt(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := new(big.Int)
	if acct, ok := b.accounts[addr]; ok {
		bal.Add(bal, acct.Balance)
	}
	if dep, ok := b.contracts[addr]; ok {
		bal.Add(bal, dep.contract.Balance())
	}
	return bal
}

// NonceAt returns the next nonce of addr.
func (b *Backend) NonceAt(addr common.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acct, ok := b.accounts[addr]; ok {
		return acct.Nonce
	}
	return 0
}

// SenderLock returns the mutex that serialises nonce assignment and
// submission for addr on this chain.
func (b *Backend) SenderLock(addr common.Address) *sync.Mutex {
	mu, _ := b.senders.LoadOrStore(addr, new(sync.Mutex))
	return mu.(*sync.Mutex)
}

// BlockNumber returns the number of the latest block.
func (b *Backend) BlockNumber() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockNumber
}

// Now returns the timestamp the next block would get.
func (b *Backend) Now() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingTime()
}

// IncreaseTime shifts every future block timestamp forward by d.
func (b *Backend) IncreaseTime(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offset += d
}

// Contract returns the ledger deployed at addr. The returned contract is
// live: mutate it only through transactions.
func (b *Backend) Contract(addr common.Address) (*ponzi.Contract, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dep, ok := b.contracts[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, addr.Hex())
	}
	return dep.contract, nil
}

// Contracts returns every deployed contract address, oldest first.
func (b *Backend) Contracts() []common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]common.Address, 0, len(b.contracts))
	for addr := range b.contracts {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := b.contracts[out[i]].block, b.contracts[out[j]].block
		if bi != bj {
			return bi < bj
		}
		return out[i].Hex() < out[j].Hex()
	})
	return out
}

// TransactionReceipt returns the receipt for hash.
func (b *Backend) TransactionReceipt(hash common.Hash) (*TxReceipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, hash.Hex())
	}
	return r, nil
}

// Receipts returns every receipt in mining order.
func (b *Backend) Receipts() []*TxReceipt {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*TxReceipt(nil), b.receipts...)
}

// SendTransaction validates, mines and executes a signed transaction. A
// rejected transaction returns only an error. A mined transaction always
// returns its receipt; when execution failed the error wraps
// ErrExecutionReverted (or ErrOutOfGas) and the contract's own error.
func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) (*TxReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	from, err := b.validate(tx)
	if err != nil {
		return nil, err
	}

	acct := b.account(from)
	price := effectiveGasPrice(tx)
	value := tx.Value()

	b.blockNumber++
	b.blockTime = b.pendingTime()
	acct.Nonce++

	receipt := &TxReceipt{
		TxHash:            tx.Hash(),
		From:              from,
		To:                tx.To(),
		Value:             new(big.Int).Set(value),
		EffectiveGasPrice: price,
		BlockNumber:       b.blockNumber,
		BlockTime:         b.blockTime,
	}
	msg := ponzi.Msg{From: from, Value: value, Timestamp: b.blockTime}

	var execErr error
	if tx.To() == nil {
		receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
		execErr = b.create(tx, msg, receipt)
	} else {
		execErr = b.call(tx, msg, receipt)
	}

	fee := receipt.Fee()
	acct.Balance.Sub(acct.Balance, fee)
	coinbase := b.account(Coinbase)
	coinbase.Balance.Add(coinbase.Balance, fee)

	if execErr != nil {
		receipt.Status = types.ReceiptStatusFailed
		receipt.Logs = nil
		receipt.RevertData = b.binding.EncodeRevert(execErr)
		receipt.RevertReason = execErr.Error()
	} else {
		receipt.Status = types.ReceiptStatusSuccessful
	}
	b.stampLogs(receipt)
	b.receipts = append(b.receipts, receipt)
	b.byHash[receipt.TxHash] = receipt

	b.log.WithFields(logrus.Fields{
		"tx":     receipt.TxHash.Hex(),
		"block":  receipt.BlockNumber,
		"from":   from.Hex(),
		"method": receipt.Method,
		"value":  value.String(),
		"gas":    receipt.GasUsed,
		"status": receipt.Status,
	}).Debug("transaction mined")

	if execErr != nil {
		b.log.WithError(execErr).WithField("tx", receipt.TxHash.Hex()).Info("transaction reverted")
		if errors.Is(execErr, ErrOutOfGas) {
			return receipt, execErr
		}
		return receipt, fmt.Errorf("%w: %w", ErrExecutionReverted, execErr)
	}
	return receipt, nil
}

// Call executes msg against the latest state without committing anything
// and returns the ABI-encoded return data.
func (b *Backend) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	res, _, err := b.dryRun(ctx, msg)
	if err != nil {
		return nil, err
	}
	return res.Return, nil
}

// EstimateGas returns the gas msg would use if mined now.
func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	_, gas, err := b.dryRun(ctx, msg)
	return gas, err
}

func (b *Backend) dryRun(ctx context.Context, msg ethereum.CallMsg) (*contract.Result, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.To == nil {
		if _, err := b.binding.UnpackConstructor(msg.Data); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrExecutionReverted, err)
		}
		return &contract.Result{}, IntrinsicGas(msg.Data, true) + params.SstoreSetGas, nil
	}

	gas := IntrinsicGas(msg.Data, false)
	dep, ok := b.contracts[*msg.To]
	if !ok {
		return &contract.Result{}, gas, nil
	}
	pm := ponzi.Msg{From: msg.From, Value: msg.Value, Timestamp: b.pendingTime()}
	res, err := b.binding.Execute(dep.contract.Clone(), pm, msg.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutionReverted, err)
	}
	return res, gas + executionGas(res.Outcome), nil
}

// validate applies the pre-mining checks and returns the sender.
func (b *Backend) validate(tx *types.Transaction) (common.Address, error) {
	if tx.ChainId().Cmp(b.chainID) != 0 {
		return common.Address{}, fmt.Errorf("%w: have %s, want %s", ErrInvalidChainID, tx.ChainId(), b.chainID)
	}
	from, err := types.Sender(b.signer, tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	acct, ok := b.accounts[from]
	if !ok {
		acct = &Account{Balance: new(big.Int)}
	}
	switch {
	case tx.Nonce() < acct.Nonce:
		return common.Address{}, fmt.Errorf("%w: address %s, tx %d, state %d", ErrNonceTooLow, from.Hex(), tx.Nonce(), acct.Nonce)
	case tx.Nonce() > acct.Nonce:
		return common.Address{}, fmt.Errorf("%w: address %s, tx %d, state %d", ErrNonceTooHigh, from.Hex(), tx.Nonce(), acct.Nonce)
	}

	intrinsic := IntrinsicGas(tx.Data(), tx.To() == nil)
	if tx.Gas() < intrinsic {
		return common.Address{}, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas(), intrinsic)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), effectiveGasPrice(tx))
	cost.Add(cost, tx.Value())
	if acct.Balance.Cmp(cost) < 0 {
		return common.Address{}, fmt.Errorf("%w: address %s have %s want %s", ErrInsufficientFunds, from.Hex(), acct.Balance, cost)
	}
	return from, nil
}

// create deploys a new PonziContract. receipt.ContractAddress is preset.
func (b *Backend) create(tx *types.Transaction, msg ponzi.Msg, receipt *TxReceipt) error {
	receipt.GasUsed = IntrinsicGas(tx.Data(), true)
	if msg.Value.Sign() > 0 {
		return fmt.Errorf("%w: constructor", contract.ErrNonPayable)
	}
	p, err := b.binding.UnpackConstructor(tx.Data())
	if err != nil {
		return err
	}

	c, out := ponzi.New(msg.From, p)
	if err := b.chargeGas(tx, receipt, out); err != nil {
		return err
	}
	b.contracts[receipt.ContractAddress] = &deployment{contract: c, creator: msg.From, block: receipt.BlockNumber}
	receipt.Logs = b.binding.Logs(receipt.ContractAddress, out.Events)
	return nil
}

// call runs a message call. Contract state is changed on a clone that only
// replaces the live contract when the whole call, gas included, succeeds.
func (b *Backend) call(tx *types.Transaction, msg ponzi.Msg, receipt *TxReceipt) error {
	to := *tx.To()
	receipt.GasUsed = IntrinsicGas(tx.Data(), false)
	sender := b.account(msg.From)

	dep, ok := b.contracts[to]
	if !ok {
		sender.Balance.Sub(sender.Balance, msg.Value)
		recipient := b.account(to)
		recipient.Balance.Add(recipient.Balance, msg.Value)
		return nil
	}

	receipt.Method = b.binding.MethodName(tx.Data())
	work := dep.contract.Clone()
	res, err := b.binding.Execute(work, msg, tx.Data())
	if err != nil {
		return err
	}
	if err := b.chargeGas(tx, receipt, res.Outcome); err != nil {
		return err
	}

	dep.contract = work
	sender.Balance.Sub(sender.Balance, msg.Value)
	for _, t := range res.Outcome.Transfers {
		recipient := b.account(t.To)
		recipient.Balance.Add(recipient.Balance, t.Amount)
	}
	receipt.Logs = b.binding.Logs(to, res.Outcome.Events)
	return nil
}

func (b *Backend) chargeGas(tx *types.Transaction, receipt *TxReceipt, out *ponzi.Outcome) error {
	used := receipt.GasUsed + executionGas(out)
	if used > tx.Gas() {
		receipt.GasUsed = tx.Gas()
		return fmt.Errorf("%w: need %d, limit %d", ErrOutOfGas, used, tx.Gas())
	}
	receipt.GasUsed = used
	return nil
}

func (b *Backend) stampLogs(r *TxReceipt) {
	blockHash := crypto.Keccak256Hash(new(big.Int).SetUint64(r.BlockNumber).Bytes(), r.TxHash.Bytes())
	for i, l := range r.Logs {
		l.BlockNumber = r.BlockNumber
		l.BlockHash = blockHash
		l.TxHash = r.TxHash
		l.Index = uint(i)
	}
}

func (b *Backend) account(addr common.Address) *Account {
	acct, ok := b.accounts[addr]
	if !ok {
		acct = &Account{Balance: new(big.Int)}
		b.accounts[addr] = acct
	}
	return acct
}

// pendingTime is the next block timestamp: the clock plus any shift from
// IncreaseTime, and always later than the previous block.
func (b *Backend) pendingTime() uint64 {
	ts := b.clock.Now().Add(b.offset).Unix()
	if ts < 0 {
		ts = 0
	}
	if uint64(ts) <= b.blockTime {
		return b.blockTime + 1
	}
	return uint64(ts)
}

// effectiveGasPrice is the tip capped by the fee cap; the base fee is zero.
func effectiveGasPrice(tx *types.Transaction) *big.Int {
	price := new(big.Int).Set(tx.GasTipCap())
	if tx.GasFeeCap().Cmp(price) < 0 {
		price.Set(tx.GasFeeCap())
	}
	return price
}
