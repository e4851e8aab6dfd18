package client_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/Mohsinsiddi/ponzilab/internal/client"
	"github.com/Mohsinsiddi/ponzilab/internal/ponzi"
	"github.com/Mohsinsiddi/ponzilab/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ether(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether)) }

type lab struct {
	backend *chain.Backend
	signers []*wallet.Signer
	owner   *client.Session
}

func newLab(t *testing.T) *lab {
	t.Helper()
	ctx := context.Background()
	b := chain.NewBackend(chain.WithClock(chain.NewManualClock(time.Unix(1_700_000_000, 0))))
	mgr := wallet.NewManager()
	accts, err := mgr.DevAccounts(3)
	require.NoError(t, err)

	l := &lab{backend: b}
	for _, a := range accts {
		b.Fund(a.CommonAddress(), ether(1000))
		s, err := mgr.Signer(a.Name)
		require.NoError(t, err)
		l.signers = append(l.signers, s)
	}

	sess, receipt, err := client.Deploy(ctx, b, l.signers[0], ponzi.DefaultParams(), 0)
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	l.owner = sess
	return l
}

func TestDeployAndReads(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()

	owner, err := l.owner.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, l.signers[0].Address(), owner)

	n, err := l.owner.AffiliatesCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	deadline, err := l.owner.RegistrationDeadline(ctx)
	require.NoError(t, err)
	assert.Zero(t, deadline)
}

func TestSessionWritesAndReads(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	deadline := l.backend.Now() + 1000

	_, err := l.owner.SetDeadline(ctx, deadline)
	require.NoError(t, err)
	got, err := l.owner.RegistrationDeadline(ctx)
	require.NoError(t, err)
	assert.Equal(t, deadline, got)

	seed := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	_, err = l.owner.AddNewAffilliate(ctx, seed)
	require.NoError(t, err)

	joiner := l.owner.Connect(l.signers[1])
	r, err := joiner.JoinPonzi(ctx, []common.Address{l.signers[1].Address()}, ether(1))
	require.NoError(t, err)
	assert.Equal(t, "joinPonzi", r.Method)

	list, err := joiner.Affiliates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{seed, l.signers[1].Address()}, list)

	ok, err := joiner.IsAffiliate(ctx, l.signers[1].Address())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = joiner.AffiliateAt(ctx, 9)
	assert.ErrorIs(t, err, ponzi.ErrIndexOutOfRange)
}

func TestEstimatedGasSurfacesContractErrors(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()

	stranger := l.owner.Connect(l.signers[1])
	r, err := stranger.SetDeadline(ctx, 1)
	assert.ErrorIs(t, err, ponzi.ErrNotOwner)
	assert.Nil(t, r, "failed estimate means nothing was mined")
	assert.Zero(t, l.backend.NonceAt(l.signers[1].Address()))
}

func TestFixedGasLimitMinesFailures(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()

	stranger := l.owner.Connect(l.signers[1])
	stranger.Transactor().GasLimit = 3_000_000
	r, err := stranger.OwnerWithdraw(ctx, l.signers[1].Address(), ether(1))
	assert.ErrorIs(t, err, ponzi.ErrNotOwner)
	require.NotNil(t, r)
	assert.False(t, r.Succeeded())
	assert.Equal(t, uint64(1), l.backend.NonceAt(l.signers[1].Address()))
}

func TestBuyOwnerRoleThenWithdraw(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	buyer := l.owner.Connect(l.signers[1])

	_, err := buyer.BuyOwnerRole(ctx, l.signers[1].Address(), ether(10))
	require.NoError(t, err)
	owner, err := buyer.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, l.signers[1].Address(), owner)

	_, err = buyer.OwnerWithdraw(ctx, l.signers[1].Address(), l.backend.BalanceAt(buyer.Address()))
	require.NoError(t, err)
	assert.Zero(t, l.backend.BalanceAt(buyer.Address()).Sign())
}

func TestReadOnlySessionCannotWrite(t *testing.T) {
	l := newLab(t)
	ro := client.NewSession(l.backend, l.owner.Address(), nil)

	_, err := ro.AddNewAffilliate(context.Background(), common.Address{})
	assert.ErrorIs(t, err, client.ErrNoSigner)

	owner, err := ro.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, l.signers[0].Address(), owner)
}

func TestConcurrentCallsFromOneSigner(t *testing.T) {
	l := newLab(t)
	ctx := context.Background()
	flooder := l.owner.Connect(l.signers[1])
	target := l.signers[1].Address()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := flooder.AddNewAffilliate(ctx, target)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	n, err := flooder.AffiliatesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), n)
	assert.Equal(t, uint64(100), l.backend.NonceAt(target))
}

func TestSendersOnSeparateChainsDoNotBlock(t *testing.T) {
	first, second := newLab(t), newLab(t)
	ctx := context.Background()

	// same dev key on both chains; holding the first chain's lock must not
	// stall the second
	held := first.backend.SenderLock(first.signers[1].Address())
	held.Lock()
	defer held.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := second.owner.Connect(second.signers[1]).AddNewAffilliate(ctx, second.signers[1].Address())
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("send on one chain blocked by a sender lock on another")
	}
}
