package eligibility

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-launchpad/internal/access"
	"solana-launchpad/internal/asset"
	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/domain"
)

var (
	stakeAsset = domain.Address{0x5A}
	admin      = domain.Address{0x01}
	alice      = domain.Address{0x02}
	bob        = domain.Address{0x03}
	custody    = domain.Address{0xC0}
)

type fixture struct {
	lock  *Lock
	book  *asset.Book
	clock *clock.Manual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	book := asset.NewBook()
	book.AddMinter(stakeAsset, admin)
	for _, who := range []domain.Address{alice, bob} {
		require.NoError(t, book.Mint(admin, stakeAsset, who, big.NewInt(1000)))
		book.Approve(who, stakeAsset, custody, big.NewInt(1000))
	}
	clk := clock.NewManual(10)
	lock := NewLock(asset.NewEscrow(book, custody), clk, access.NewAdmins(admin))
	return &fixture{lock: lock, book: book, clock: clk}
}

func (f *fixture) configure(t *testing.T) {
	t.Helper()
	require.NoError(t, f.lock.SetLockUpAsset(admin, stakeAsset))
	require.NoError(t, f.lock.SetMinLockUpAmount(admin, big.NewInt(100)))
	require.NoError(t, f.lock.SetMinLockUpPeriod(admin, 50))
}

func TestLock_AdminOnlySetters(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.lock.SetLockUpAsset(alice, stakeAsset), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.lock.SetMinLockUpAmount(alice, big.NewInt(1)), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.lock.SetMinLockUpPeriod(alice, 1), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.lock.SetMinLockUpAmount(admin, big.NewInt(-1)), domain.ErrOutOfRange)
}

func TestLock_UnsetAssetDeniesEveryone(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.lock.IsEligible(alice))
	assert.ErrorIs(t, f.lock.Lock(context.Background(), alice), domain.ErrLockNotSet)
}

func TestLock_LockAndUnlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.configure(t)

	require.NoError(t, f.lock.Lock(ctx, alice))
	assert.True(t, f.lock.IsEligible(alice))
	assert.False(t, f.lock.IsEligible(bob))
	assert.Equal(t, "900", f.book.BalanceOf(stakeAsset, alice).String())
	assert.Equal(t, "100", f.book.BalanceOf(stakeAsset, custody).String())

	stake, ok := f.lock.StakeOf(alice)
	require.True(t, ok)
	assert.Equal(t, uint64(10), stake.LockedAt)
	assert.Equal(t, uint64(60), stake.UnlocksAt)

	assert.ErrorIs(t, f.lock.Lock(ctx, alice), domain.ErrAlreadyLocked)

	f.clock.Set(59)
	assert.ErrorIs(t, f.lock.Unlock(ctx, alice), domain.ErrLockPeriodActive)

	f.clock.Set(60)
	require.NoError(t, f.lock.Unlock(ctx, alice))
	assert.False(t, f.lock.IsEligible(alice))
	assert.Equal(t, "1000", f.book.BalanceOf(stakeAsset, alice).String())

	assert.ErrorIs(t, f.lock.Unlock(ctx, alice), domain.ErrNotLocked)
}

func TestLock_RaisedMinimumRevokesEligibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.configure(t)

	require.NoError(t, f.lock.Lock(ctx, alice))
	require.NoError(t, f.lock.SetMinLockUpAmount(admin, big.NewInt(101)))
	assert.False(t, f.lock.IsEligible(alice))
}

func TestLock_PullFailureLeavesNoStake(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.configure(t)
	f.book.Approve(bob, stakeAsset, custody, big.NewInt(0))

	assert.ErrorIs(t, f.lock.Lock(ctx, bob), domain.ErrInsufficientAllowance)
	_, ok := f.lock.StakeOf(bob)
	assert.False(t, ok)
}

func TestLock_TransferHookMayCallBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.configure(t)

	var eligibleDuring []bool
	var nested error
	f.book.SetTransferHook(func(_ context.Context, tr asset.Transfer) error {
		eligibleDuring = append(eligibleDuring, f.lock.IsEligible(alice))
		if tr.From == alice {
			nested = f.lock.Lock(context.Background(), alice)
		}
		return nil
	})

	require.NoError(t, f.lock.Lock(ctx, alice))
	assert.ErrorIs(t, nested, domain.ErrAlreadyLocked)
	assert.True(t, f.lock.IsEligible(alice))

	f.clock.Set(60)
	require.NoError(t, f.lock.Unlock(ctx, alice))
	assert.Equal(t, []bool{false, false}, eligibleDuring)
	assert.Equal(t, "1000", f.book.BalanceOf(stakeAsset, alice).String())
}

func TestLock_PushFailureKeepsStake(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.configure(t)
	require.NoError(t, f.lock.Lock(ctx, alice))

	f.book.SetTransferHook(func(context.Context, asset.Transfer) error { return assert.AnError })
	f.clock.Set(60)
	assert.ErrorIs(t, f.lock.Unlock(ctx, alice), assert.AnError)
	assert.True(t, f.lock.IsEligible(alice))

	f.book.SetTransferHook(nil)
	require.NoError(t, f.lock.Unlock(ctx, alice))
}

func TestAllowAll(t *testing.T) {
	assert.True(t, AllowAll{}.IsEligible(bob))
}
