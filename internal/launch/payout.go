package launch

import (
	"context"
	"fmt"
	"math/big"

	"solana-launchpad/internal/domain"
)

// Exit returns the caller's collateral, net of debt forfeiture, and
// reports the amount paid. Exit and Remove settle the same collateral leg:
// whichever runs first pays out, and each may be called once.
func (e *Engine) Exit(ctx context.Context, caller domain.Address, id uint64) (*big.Int, error) {
	return e.settle(ctx, "exit", caller, id, func(p *domain.Position) *bool { return &p.Exited }, domain.ErrAlreadyExited, domain.EventExited)
}

// Remove is the alternate settlement entry. See Exit.
func (e *Engine) Remove(ctx context.Context, caller domain.Address, id uint64) (*big.Int, error) {
	return e.settle(ctx, "remove", caller, id, func(p *domain.Position) *bool { return &p.Removed }, domain.ErrAlreadyRemoved, domain.EventRemoved)
}

func (e *Engine) settle(
	ctx context.Context,
	op string,
	caller domain.Address,
	id uint64,
	flag func(*domain.Position) *bool,
	errRepeat error,
	kind domain.EventKind,
) (*big.Int, error) {
	paid := new(big.Int)
	err := e.run(ctx, op, func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.gate(id, now, domain.PhaseSettlement)
		if err != nil {
			return nil, err
		}
		c := rec.c
		pos, err := rec.position(caller)
		if err != nil {
			return nil, err
		}
		done := flag(pos)
		if *done {
			return nil, fmt.Errorf("%s in campaign %d: %w", caller, id, errRepeat)
		}

		restore := rec.snapshot(caller)
		payout := new(big.Int)
		if !pos.Settled() {
			payout = releaseCollateral(c, pos)
		}
		*done = true

		if err := e.ledger.Push(ctx, c.CollateralAsset, caller, payout); err != nil {
			restore()
			return nil, fmt.Errorf("return collateral: %w", err)
		}
		paid.Set(payout)
		return newEvent(kind, id, caller, payout), nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// releaseCollateral zeroes the position's collateral and debt, moves the
// forfeited part to the campaign and returns the remainder owed to the
// participant.
func releaseCollateral(c *domain.Campaign, pos *domain.Position) *big.Int {
	forfeit := forfeitedCollateral(c, pos.Collateral, pos.Debt)
	payout := new(big.Int).Sub(pos.Collateral, forfeit)

	c.TotalCollateral.Sub(c.TotalCollateral, pos.Collateral)
	c.OutstandingDebt.Sub(c.OutstandingDebt, pos.Debt)
	c.Forfeited.Add(c.Forfeited, forfeit)

	pos.Forfeited.Set(forfeit)
	pos.Collateral.SetInt64(0)
	pos.Debt.SetInt64(0)
	return payout
}

// Reward pays the caller's share of the reward supply:
// rewardSupply * contributed / raised, truncated. The share basis is the
// collateral each participant deposited, so it is unaffected by exits.
// Draws still unrepaid were taken from this share in advance and are
// deducted from the payout; unrepaid debt also forfeits collateral at exit.
func (e *Engine) Reward(ctx context.Context, caller domain.Address, id uint64) (*big.Int, error) {
	paid := new(big.Int)
	err := e.run(ctx, "reward", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.gate(id, now, domain.PhaseSettlement)
		if err != nil {
			return nil, err
		}
		c := rec.c
		pos, err := rec.position(caller)
		if err != nil {
			return nil, err
		}
		if pos.Claimed {
			return nil, fmt.Errorf("%s in campaign %d: %w", caller, id, domain.ErrAlreadyRewarded)
		}

		share := rewardShare(c, pos)
		netted := domain.MinInt(share, pos.Advanced)
		payout := new(big.Int).Sub(share, netted)

		restore := rec.snapshot(caller)
		pos.Claimed = true
		pos.Advanced.Sub(pos.Advanced, netted)
		pos.Rewarded.Set(payout)
		c.RewardPaid.Add(c.RewardPaid, payout)
		c.RewardEscrow.Sub(c.RewardEscrow, payout)

		if err := e.ledger.Push(ctx, c.RewardAsset, caller, payout); err != nil {
			restore()
			return nil, fmt.Errorf("pay reward: %w", err)
		}
		paid.Set(payout)
		return newEvent(domain.EventRewarded, id, caller, payout), nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// rewardShare is the position's pro-rata reward,
// rewardSupply * contributed / raised, truncated.
func rewardShare(c *domain.Campaign, pos *domain.Position) *big.Int {
	if c.RaisedCollateral.Sign() == 0 {
		return new(big.Int)
	}
	return domain.MulDiv(c.RewardSupply, pos.Contributed, c.RaisedCollateral)
}

// Refund returns the caller's full collateral when the campaign reached
// settlement below its funding floor.
func (e *Engine) Refund(ctx context.Context, caller domain.Address, id uint64) (*big.Int, error) {
	paid := new(big.Int)
	err := e.run(ctx, "refund", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.configured(id)
		if err != nil {
			return nil, err
		}
		c := rec.c
		if got := c.Schedule.PhaseAt(now); got != domain.PhaseSettlement {
			return nil, fmt.Errorf("campaign %d in %s, need %s: %w", id, got, domain.PhaseSettlement, domain.ErrWrongPhase)
		}
		if !c.FloorFailed(now) {
			return nil, fmt.Errorf("campaign %d: %w", id, domain.ErrFloorMet)
		}
		pos, err := rec.position(caller)
		if err != nil {
			return nil, err
		}
		if pos.Refunded {
			return nil, fmt.Errorf("%s in campaign %d: %w", caller, id, domain.ErrAlreadyRefunded)
		}

		restore := rec.snapshot(caller)
		amount := new(big.Int).Set(pos.Collateral)
		c.TotalCollateral.Sub(c.TotalCollateral, amount)
		pos.Collateral.SetInt64(0)
		pos.Refunded = true

		if err := e.ledger.Push(ctx, c.CollateralAsset, caller, amount); err != nil {
			restore()
			return nil, fmt.Errorf("refund collateral: %w", err)
		}
		paid.Set(amount)
		return newEvent(domain.EventRefunded, id, caller, amount), nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// ClaimForfeited pays collateral withheld from indebted exits to the
// beneficiary. Settlement phase only.
func (e *Engine) ClaimForfeited(ctx context.Context, caller domain.Address, id uint64) (*big.Int, error) {
	paid := new(big.Int)
	err := e.run(ctx, "claim_forfeited", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.configured(id)
		if err != nil {
			return nil, err
		}
		c := rec.c
		if caller != c.Beneficiary {
			return nil, fmt.Errorf("%s is not beneficiary of campaign %d: %w", caller, id, domain.ErrUnauthorized)
		}
		if got := c.Schedule.PhaseAt(now); got != domain.PhaseSettlement {
			return nil, fmt.Errorf("campaign %d in %s, need %s: %w", id, got, domain.PhaseSettlement, domain.ErrWrongPhase)
		}
		if c.Forfeited.Sign() == 0 {
			return nil, nil
		}

		restore := rec.snapshot(caller)
		amount := new(big.Int).Set(c.Forfeited)
		c.Forfeited.SetInt64(0)

		if err := e.ledger.Push(ctx, c.CollateralAsset, caller, amount); err != nil {
			restore()
			return nil, fmt.Errorf("sweep forfeited collateral: %w", err)
		}
		paid.Set(amount)
		return newEvent(domain.EventForfeitClaimed, id, caller, amount), nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}
