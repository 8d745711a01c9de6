package replay

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
	"solana-launchpad/internal/eligibility"
	"solana-launchpad/internal/idhash"
	"solana-launchpad/internal/launch"
	"solana-launchpad/internal/storage/memory"
)

var (
	admin       = domain.Address{0x01}
	beneficiary = domain.Address{0x02}
	alice       = domain.Address{0x11}
	bob         = domain.Address{0x12}
	rewardMint  = domain.Address{0xA1}
	collMint    = domain.Address{0xC1}
	escrow      = domain.Address{0xEE}
)

// live drives a real engine that journals into a memory store.
type live struct {
	engine  *launch.Engine
	clock   *clock.Manual
	journal *memory.EventStore
}

func newLive(t *testing.T) *live {
	t.Helper()

	book := asset.NewBook()
	book.AddMinter(rewardMint, admin)
	book.AddMinter(collMint, admin)
	require.NoError(t, book.Mint(admin, rewardMint, admin, big.NewInt(10000)))
	book.Approve(admin, rewardMint, escrow, big.NewInt(10000))
	for _, p := range []domain.Address{alice, bob} {
		require.NoError(t, book.Mint(admin, collMint, p, big.NewInt(1000)))
		book.Approve(p, collMint, escrow, big.NewInt(1000))
		book.Approve(p, rewardMint, escrow, big.NewInt(1000))
	}

	l := &live{clock: clock.NewManual(10), journal: memory.NewEventStore()}
	engine, err := launch.New(launch.Options{
		Ledger:    asset.NewEscrow(book, escrow),
		Oracle:    eligibility.AllowAll{},
		Authority: access.NewAdmins(admin),
		Clock:     l.clock,
		Journal:   l.journal,
	})
	require.NoError(t, err)
	l.engine = engine
	return l
}

// setup creates and configures one campaign and lets alice and bob join.
func (l *live) setup(t *testing.T) uint64 {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, l.engine.ApproveCollateralAsset(ctx, admin, collMint))
	id, err := l.engine.CreateCampaign(ctx, admin, domain.CampaignParams{
		RewardAsset:     rewardMint,
		CollateralAsset: collMint,
		Beneficiary:     beneficiary,
		CollateralRatio: new(big.Int).Div(domain.RatioScale, big.NewInt(2)),
		BorrowRatio:     new(big.Int).Div(domain.RatioScale, big.NewInt(10)),
		RewardSupply:    big.NewInt(10000),
		FundingCap:      big.NewInt(10000),
	})
	require.NoError(t, err)

	require.NoError(t, l.engine.Configure(ctx, beneficiary, id,
		domain.Schedule{JoinStart: 100, AddStart: 200, BorrowStart: 300, ExitStart: 400},
		domain.ConfigureParams{AuxParam: big.NewInt(3), MinContribution: big.NewInt(10), MaxContribution: big.NewInt(0), Floor: big.NewInt(50)}))
	require.NoError(t, l.engine.AddToWhitelist(ctx, beneficiary, id, []domain.Address{alice, bob}))

	l.clock.Set(100)
	require.NoError(t, l.engine.Join(ctx, alice, id, big.NewInt(300)))
	require.NoError(t, l.engine.Join(ctx, bob, id, big.NewInt(100)))
	return id
}

// settle runs the remaining lifecycle: add, borrow, repay, exit, reward, sweep.
func (l *live) settle(t *testing.T, id uint64) {
	t.Helper()
	ctx := context.Background()

	l.clock.Set(200)
	require.NoError(t, l.engine.Add(ctx, bob, id, big.NewInt(50)))

	l.clock.Set(300)
	require.NoError(t, l.engine.Borrow(ctx, alice, id, big.NewInt(60)))
	require.NoError(t, l.engine.Borrow(ctx, bob, id, big.NewInt(30)))
	_, err := l.engine.Repay(ctx, alice, id, big.NewInt(25))
	require.NoError(t, err)

	l.clock.Set(400)
	_, err = l.engine.Exit(ctx, alice, id)
	require.NoError(t, err)
	_, err = l.engine.Remove(ctx, alice, id)
	require.NoError(t, err)
	_, err = l.engine.Remove(ctx, bob, id)
	require.NoError(t, err)
	_, err = l.engine.Reward(ctx, alice, id)
	require.NoError(t, err)
	_, err = l.engine.Reward(ctx, bob, id)
	require.NoError(t, err)
	_, err = l.engine.ClaimForfeited(ctx, beneficiary, id)
	require.NoError(t, err)
}

func assertSameState(t *testing.T, want, got *launch.Engine, id uint64) {
	t.Helper()

	wc, err := want.Campaign(id)
	require.NoError(t, err)
	gc, err := got.Campaign(id)
	require.NoError(t, err)

	assert.Equal(t, wc.State, gc.State)
	assert.Equal(t, wc.Schedule, gc.Schedule)
	assert.Equal(t, wc.Participants, gc.Participants)
	for name, pair := range map[string][2]*big.Int{
		"total":     {wc.TotalCollateral, gc.TotalCollateral},
		"raised":    {wc.RaisedCollateral, gc.RaisedCollateral},
		"escrow":    {wc.RewardEscrow, gc.RewardEscrow},
		"paid":      {wc.RewardPaid, gc.RewardPaid},
		"debt":      {wc.OutstandingDebt, gc.OutstandingDebt},
		"forfeited": {wc.Forfeited, gc.Forfeited},
		"aux":       {wc.AuxParam, gc.AuxParam},
	} {
		assert.Equal(t, pair[0].String(), pair[1].String(), name)
	}

	wp, err := want.Positions(id)
	require.NoError(t, err)
	gp, err := got.Positions(id)
	require.NoError(t, err)
	require.Len(t, gp, len(wp))
	for i := range wp {
		assert.Equal(t, wp[i].Participant, gp[i].Participant)
		assert.Equal(t, wp[i].Stage(), gp[i].Stage())
		assert.Equal(t, wp[i].Collateral.String(), gp[i].Collateral.String())
		assert.Equal(t, wp[i].Contributed.String(), gp[i].Contributed.String())
		assert.Equal(t, wp[i].Debt.String(), gp[i].Debt.String())
		assert.Equal(t, wp[i].Advanced.String(), gp[i].Advanced.String())
		assert.Equal(t, wp[i].Rewarded.String(), gp[i].Rewarded.String())
	}

	require.NoError(t, got.CheckInvariants())
}

func TestProjector_RebuildsState(t *testing.T) {
	ctx := context.Background()
	l := newLive(t)
	id := l.setup(t)
	l.settle(t, id)

	p, err := NewProjector(ProjectorOptions{})
	require.NoError(t, err)

	n, err := p.Sync(ctx, l.journal)
	require.NoError(t, err)
	assert.Equal(t, int(l.engine.LastSeq()), n)
	assert.Equal(t, l.engine.LastSeq(), p.LastSeq())

	assertSameState(t, l.engine, p.Engine(), id)
	assert.Equal(t, l.engine.ApprovedAssets(), p.Engine().ApprovedAssets())

	list, err := p.Engine().Whitelist(id)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{alice, bob}, list)
}

func TestProjector_IncrementalSync(t *testing.T) {
	ctx := context.Background()
	l := newLive(t)
	id := l.setup(t)

	p, err := NewProjector(ProjectorOptions{})
	require.NoError(t, err)

	first, err := p.Sync(ctx, l.journal)
	require.NoError(t, err)
	assertSameState(t, l.engine, p.Engine(), id)

	n, err := p.Sync(ctx, l.journal)
	require.NoError(t, err)
	assert.Zero(t, n)

	l.settle(t, id)
	second, err := p.Sync(ctx, l.journal)
	require.NoError(t, err)
	assert.Equal(t, int(l.engine.LastSeq()), first+second)
	assertSameState(t, l.engine, p.Engine(), id)
}

func TestProjector_FailedFloorRefund(t *testing.T) {
	ctx := context.Background()
	l := newLive(t)
	require.NoError(t, l.engine.ApproveCollateralAsset(ctx, admin, collMint))
	id, err := l.engine.CreateCampaign(ctx, admin, domain.CampaignParams{
		RewardAsset:     rewardMint,
		CollateralAsset: collMint,
		Beneficiary:     beneficiary,
		CollateralRatio: domain.RatioScale,
		BorrowRatio:     domain.RatioScale,
		RewardSupply:    big.NewInt(100),
		FundingCap:      big.NewInt(10000),
	})
	require.NoError(t, err)
	require.NoError(t, l.engine.Configure(ctx, beneficiary, id,
		domain.Schedule{JoinStart: 100, AddStart: 200, BorrowStart: 300, ExitStart: 400},
		domain.ConfigureParams{MinContribution: big.NewInt(1), Floor: big.NewInt(500)}))
	require.NoError(t, l.engine.AddToWhitelist(ctx, beneficiary, id, []domain.Address{alice}))
	l.clock.Set(150)
	require.NoError(t, l.engine.Join(ctx, alice, id, big.NewInt(99)))
	l.clock.Set(401)
	refunded, err := l.engine.Refund(ctx, alice, id)
	require.NoError(t, err)
	require.Equal(t, "99", refunded.String())

	p, err := NewProjector(ProjectorOptions{})
	require.NoError(t, err)
	_, err = p.Sync(ctx, l.journal)
	require.NoError(t, err)

	pos, err := p.Engine().Position(id, alice)
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", pos.Stage())
}

func TestProjector_DetectsDivergence(t *testing.T) {
	ctx := context.Background()
	l := newLive(t)
	id := l.setup(t)
	l.settle(t, id)

	events, err := l.journal.GetRange(ctx, 1, 0)
	require.NoError(t, err)

	t.Run("tampered payout", func(t *testing.T) {
		forged := memory.NewEventStore()
		for _, e := range events {
			c := *e
			if c.Kind == domain.EventRewarded && c.Actor == bob {
				c.Amount = new(big.Int).Add(c.Amount, big.NewInt(1))
				c.EventID = idhash.ComputeEventID(c.Seq, c.Kind, c.CampaignID, c.Actor, c.Slot, c.Amount)
			}
			require.NoError(t, forged.Append(ctx, &c))
		}

		p, err := NewProjector(ProjectorOptions{})
		require.NoError(t, err)
		_, err = p.Sync(ctx, forged)
		assert.ErrorIs(t, err, ErrDivergence)
	})

	t.Run("tampered event id", func(t *testing.T) {
		forged := memory.NewEventStore()
		for _, e := range events {
			c := *e
			if c.Seq == 3 {
				c.EventID = "00"
			}
			require.NoError(t, forged.Append(ctx, &c))
		}

		p, err := NewProjector(ProjectorOptions{})
		require.NoError(t, err)
		_, err = p.Sync(ctx, forged)
		assert.ErrorIs(t, err, ErrDivergence)
		assert.Equal(t, uint64(2), p.LastSeq())
	})

	t.Run("unknown kind", func(t *testing.T) {
		p, err := NewProjector(ProjectorOptions{})
		require.NoError(t, err)
		err = p.OnEvent(ctx, sealed(1, domain.EventKind("MINTED"), 1))
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}
