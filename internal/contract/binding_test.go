package contract_test

import (
	"encoding/hex"
	"math"
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/ponzilab/internal/contract"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	seed     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

func newFixture(t *testing.T) (*contract.Binding, *ponzi.Contract) {
	t.Helper()
	b, err := contract.NewBinding()
	require.NoError(t, err)
	c, _ := ponzi.New(deployer, ponzi.DefaultParams())
	return b, c
}

func exec(t *testing.T, b *contract.Binding, c *ponzi.Contract, msg ponzi.Msg, method string, args ...interface{}) (*contract.Result, error) {
	t.Helper()
	data, err := b.Pack(method, args...)
	require.NoError(t, err)
	return b.Execute(c, msg, data)
}

func TestExecuteWriteAndRead(t *testing.T) {
	b, c := newFixture(t)

	_, err := exec(t, b, c, ponzi.Msg{From: deployer}, "setDeadline", big.NewInt(5000))
	require.NoError(t, err)
	_, err = exec(t, b, c, ponzi.Msg{From: alice}, "addNewAffilliate", seed)
	require.NoError(t, err)

	res, err := exec(t, b, c, ponzi.Msg{}, "affiliatesCount")
	require.NoError(t, err)
	vals, err := b.Unpack("affiliatesCount", res.Return)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), vals[0].(*big.Int).Uint64())

	res, err = exec(t, b, c, ponzi.Msg{}, "affiliates", big.NewInt(0))
	require.NoError(t, err)
	vals, err = b.Unpack("affiliates", res.Return)
	require.NoError(t, err)
	assert.Equal(t, seed, vals[0].(common.Address))

	res, err = exec(t, b, c, ponzi.Msg{}, "registrationDeadline")
	require.NoError(t, err)
	vals, err = b.Unpack("registrationDeadline", res.Return)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), vals[0].(*big.Int).Uint64())

	res, err = exec(t, b, c, ponzi.Msg{}, "isAffiliate", seed)
	require.NoError(t, err)
	vals, err = b.Unpack("isAffiliate", res.Return)
	require.NoError(t, err)
	assert.Equal(t, true, vals[0])
}

func TestExecuteJoinPonzi(t *testing.T) {
	b, c := newFixture(t)
	_, err := exec(t, b, c, ponzi.Msg{From: deployer}, "setDeadline", big.NewInt(5000))
	require.NoError(t, err)
	_, err = exec(t, b, c, ponzi.Msg{From: deployer}, "addNewAffilliate", seed)
	require.NoError(t, err)

	res, err := exec(t, b, c, ponzi.Msg{From: alice, Value: ether(1), Timestamp: 100}, "joinPonzi", []common.Address{alice})
	require.NoError(t, err)
	assert.Equal(t, "joinPonzi", res.Method)
	require.Len(t, res.Outcome.Transfers, 1)
	assert.Equal(t, alice, res.Outcome.Transfers[0].To)
	assert.Equal(t, uint64(2), c.AffiliatesCount())
}

func TestExecuteWideIntegerArguments(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	twoTo64 := new(big.Int).Lsh(big.NewInt(1), 64)

	t.Run("deadline saturates", func(t *testing.T) {
		for _, d := range []*big.Int{twoTo64, maxUint256} {
			b, c := newFixture(t)
			_, err := exec(t, b, c, ponzi.Msg{From: deployer}, "setDeadline", d)
			require.NoError(t, err)
			assert.Equal(t, uint64(math.MaxUint64), c.Deadline())

			res, err := exec(t, b, c, ponzi.Msg{}, "registrationDeadline")
			require.NoError(t, err)
			vals, err := b.Unpack("registrationDeadline", res.Return)
			require.NoError(t, err)
			assert.Equal(t, new(big.Int).SetUint64(math.MaxUint64), vals[0])

			_, err = exec(t, b, c, ponzi.Msg{From: alice, Timestamp: math.MaxUint64}, "joinPonzi", []common.Address{})
			assert.NoError(t, err, "join at the last representable block time")
		}
	})

	t.Run("affiliate index out of range", func(t *testing.T) {
		b, c := newFixture(t)
		for _, a := range []common.Address{seed, alice} {
			_, err := exec(t, b, c, ponzi.Msg{From: deployer}, "addNewAffilliate", a)
			require.NoError(t, err)
		}
		for _, i := range []*big.Int{twoTo64, new(big.Int).Add(twoTo64, big.NewInt(1)), maxUint256} {
			_, err := exec(t, b, c, ponzi.Msg{}, "affiliates", i)
			assert.ErrorIs(t, err, ponzi.ErrIndexOutOfRange, "index %s", i)
		}
	})

	t.Run("withdraw beyond balance", func(t *testing.T) {
		b, c := newFixture(t)
		_, err := exec(t, b, c, ponzi.Msg{From: alice, Value: ether(10)}, "buyOwnerRole", alice)
		require.NoError(t, err)
		for _, amount := range []*big.Int{twoTo64, maxUint256} {
			_, err := exec(t, b, c, ponzi.Msg{From: alice}, "ownerWithdraw", alice, amount)
			assert.ErrorIs(t, err, ponzi.ErrInsufficientBalance)
		}
		assert.Equal(t, ether(10), c.Balance())
	})
}

func TestExecuteBuyOwnerRoleEmitsLog(t *testing.T) {
	b, c := newFixture(t)
	contractAddr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	res, err := exec(t, b, c, ponzi.Msg{From: alice, Value: ether(10)}, "buyOwnerRole", alice)
	require.NoError(t, err)

	logs := b.Logs(contractAddr, res.Outcome.Events)
	require.Len(t, logs, 1)
	assert.Equal(t, contractAddr, logs[0].Address)

	ev, ok := b.ParseOwnershipTransferred(logs[0])
	require.True(t, ok)
	assert.Equal(t, deployer, ev.PreviousOwner)
	assert.Equal(t, alice, ev.NewOwner)
}

func TestExecuteRejectsValueOnNonPayable(t *testing.T) {
	b, c := newFixture(t)
	_, err := exec(t, b, c, ponzi.Msg{From: alice, Value: big.NewInt(1)}, "addNewAffilliate", alice)
	assert.ErrorIs(t, err, contract.ErrNonPayable)
	assert.Zero(t, c.AffiliatesCount())
}

func TestExecuteUnknownSelector(t *testing.T) {
	b, c := newFixture(t)
	_, err := b.Execute(c, ponzi.Msg{}, []byte{0xde, 0xad, 0xbe, 0xef})
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)

	_, err = b.Execute(c, ponzi.Msg{}, []byte{0x01})
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)
}

func TestExecuteBadCalldata(t *testing.T) {
	b, c := newFixture(t)
	data, err := b.Pack("ownerWithdraw", alice, big.NewInt(1))
	require.NoError(t, err)
	_, err = b.Execute(c, ponzi.Msg{From: deployer}, data[:20])
	assert.ErrorIs(t, err, contract.ErrBadCalldata)
}

func TestExecutePropagatesContractErrors(t *testing.T) {
	b, c := newFixture(t)
	_, err := exec(t, b, c, ponzi.Msg{From: alice}, "ownerWithdraw", alice, big.NewInt(1))
	assert.ErrorIs(t, err, ponzi.ErrNotOwner)
}

func TestRevertRoundTrip(t *testing.T) {
	b, _ := newFixture(t)

	sentinels := []error{
		ponzi.ErrDeadlinePassed,
		ponzi.ErrIncorrectPayment,
		ponzi.ErrAffiliateCountMismatch,
		ponzi.ErrInsufficientPayment,
		ponzi.ErrNotOwner,
		ponzi.ErrInsufficientBalance,
		ponzi.ErrIndexOutOfRange,
	}
	for _, s := range sentinels {
		t.Run(s.Error(), func(t *testing.T) {
			data := b.EncodeRevert(s)
			require.Len(t, data, 4)
			assert.ErrorIs(t, b.DecodeRevert(data), s)
		})
	}
}

func TestRevertNonContractError(t *testing.T) {
	b, _ := newFixture(t)
	assert.Empty(t, b.EncodeRevert(contract.ErrNonPayable))
	assert.ErrorIs(t, b.DecodeRevert(nil), contract.ErrReverted)

	// Error(string) "nope"
	raw, err := hex.DecodeString("08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000004" +
		"6e6f706500000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	decoded := b.DecodeRevert(raw)
	assert.ErrorIs(t, decoded, contract.ErrReverted)
	assert.Contains(t, decoded.Error(), "nope")
}

func TestConstructorRoundTrip(t *testing.T) {
	b, _ := newFixture(t)
	p := ponzi.Params{UnitPrice: big.NewInt(3), OwnerRolePrice: big.NewInt(30)}

	data, err := b.PackConstructor(p)
	require.NoError(t, err)
	got, err := b.UnpackConstructor(data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnitPrice.Cmp(p.UnitPrice))
	assert.Equal(t, 0, got.OwnerRolePrice.Cmp(p.OwnerRolePrice))
}

func TestMethodName(t *testing.T) {
	b, _ := newFixture(t)
	data, err := b.Pack("joinPonzi", []common.Address{})
	require.NoError(t, err)
	assert.Equal(t, "joinPonzi", b.MethodName(data))
	assert.Equal(t, "", b.MethodName([]byte{1, 2}))
}
