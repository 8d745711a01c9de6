package launch

import (
	"context"
	"fmt"
	"math/big"

	"solana-launchpad/internal/domain"
)

// Join opens the caller's position with amount of collateral.
func (e *Engine) Join(ctx context.Context, caller domain.Address, id uint64, amount *big.Int) error {
	return e.run(ctx, "join", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.gate(id, now, domain.PhaseJoin)
		if err != nil {
			return nil, err
		}
		c := rec.c
		if _, ok := rec.whitelist[caller]; !ok {
			return nil, fmt.Errorf("%s in campaign %d: %w", caller, id, domain.ErrNotWhitelisted)
		}
		if !e.oracle.IsEligible(caller) {
			return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotEligible)
		}
		if pos, ok := rec.positions[caller]; ok && pos.Joined {
			return nil, fmt.Errorf("%s in campaign %d: %w", caller, id, domain.ErrAlreadyJoined)
		}

		amt := nonNil(amount)
		if err := checkRange(c, amt, amt); err != nil {
			return nil, err
		}
		if err := e.ledger.Pull(ctx, c.CollateralAsset, caller, amt); err != nil {
			return nil, fmt.Errorf("pull collateral: %w", err)
		}

		pos := domain.NewPosition(id, caller)
		pos.Collateral.Set(amt)
		pos.Contributed.Set(amt)
		pos.Joined = true
		rec.positions[caller] = pos
		rec.joinOrder = append(rec.joinOrder, caller)

		c.TotalCollateral.Add(c.TotalCollateral, amt)
		c.RaisedCollateral.Add(c.RaisedCollateral, amt)
		c.Participants++

		return newEvent(domain.EventJoined, id, caller, amt), nil
	})
}

// Add tops up the caller's collateral.
func (e *Engine) Add(ctx context.Context, caller domain.Address, id uint64, amount *big.Int) error {
	return e.run(ctx, "add", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.gate(id, now, domain.PhaseAdd)
		if err != nil {
			return nil, err
		}
		c := rec.c
		pos, err := rec.position(caller)
		if err != nil {
			return nil, err
		}

		amt := nonNil(amount)
		if err := checkRange(c, new(big.Int).Add(pos.Collateral, amt), amt); err != nil {
			return nil, err
		}
		if err := e.ledger.Pull(ctx, c.CollateralAsset, caller, amt); err != nil {
			return nil, fmt.Errorf("pull collateral: %w", err)
		}

		pos.Collateral.Add(pos.Collateral, amt)
		pos.Contributed.Add(pos.Contributed, amt)
		c.TotalCollateral.Add(c.TotalCollateral, amt)
		c.RaisedCollateral.Add(c.RaisedCollateral, amt)

		return newEvent(domain.EventAdded, id, caller, amt), nil
	})
}

// checkRange validates a deposit of delta that brings the participant to
// total: delta is positive, total lies within [min, max] (max 0 means
// unbounded) and the campaign stays within its funding cap.
func checkRange(c *domain.Campaign, total, delta *big.Int) error {
	if delta.Sign() <= 0 {
		return fmt.Errorf("amount %s must be positive: %w", delta, domain.ErrOutOfRange)
	}
	if total.Cmp(c.MinContribution) < 0 {
		return fmt.Errorf("contribution %s below min %s: %w", total, c.MinContribution, domain.ErrOutOfRange)
	}
	if c.MaxContribution.Sign() != 0 && total.Cmp(c.MaxContribution) > 0 {
		return fmt.Errorf("contribution %s above max %s: %w", total, c.MaxContribution, domain.ErrOutOfRange)
	}
	if next := new(big.Int).Add(c.TotalCollateral, delta); next.Cmp(c.FundingCap) > 0 {
		return fmt.Errorf("campaign total %s above cap %s: %w", next, c.FundingCap, domain.ErrOutOfRange)
	}
	return nil
}

// Borrow pays amount of the reward asset to the caller from escrow as an
// advance on their reward. Debt is bounded by the collateral ceiling and by
// the caller's reward share.
func (e *Engine) Borrow(ctx context.Context, caller domain.Address, id uint64, amount *big.Int) error {
	return e.run(ctx, "borrow", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.gate(id, now, domain.PhaseBorrowRepay)
		if err != nil {
			return nil, err
		}
		c := rec.c
		pos, err := rec.position(caller)
		if err != nil {
			return nil, err
		}

		amt := nonNil(amount)
		if amt.Sign() <= 0 {
			return nil, fmt.Errorf("amount %s must be positive: %w", amt, domain.ErrOutOfRange)
		}
		debt := new(big.Int).Add(pos.Debt, amt)
		if ceiling := c.DebtCeiling(pos.Collateral); debt.Cmp(ceiling) > 0 {
			return nil, fmt.Errorf("debt %s above ceiling %s: %w", debt, ceiling, domain.ErrDebtCeilingExceeded)
		}
		// Contributions are final once borrowing opens, so the share is too.
		if share := rewardShare(c, pos); debt.Cmp(share) > 0 {
			return nil, fmt.Errorf("debt %s above reward share %s: %w", debt, share, domain.ErrDebtCeilingExceeded)
		}
		if amt.Cmp(c.RewardEscrow) > 0 {
			return nil, fmt.Errorf("borrow %s, escrow holds %s: %w", amt, c.RewardEscrow, domain.ErrInsufficientEscrow)
		}

		restore := rec.snapshot(caller)
		pos.Debt.Set(debt)
		pos.Advanced.Add(pos.Advanced, amt)
		c.OutstandingDebt.Add(c.OutstandingDebt, amt)
		c.RewardEscrow.Sub(c.RewardEscrow, amt)

		if err := e.ledger.Push(ctx, c.RewardAsset, caller, amt); err != nil {
			restore()
			return nil, fmt.Errorf("pay borrow: %w", err)
		}
		return newEvent(domain.EventBorrowed, id, caller, amt), nil
	})
}

// Repay pulls min(amount, debt) of the reward asset from the caller and
// returns the amount consumed. Overpaying is tolerated; only the debt is taken.
func (e *Engine) Repay(ctx context.Context, caller domain.Address, id uint64, amount *big.Int) (*big.Int, error) {
	consumed := new(big.Int)
	err := e.run(ctx, "repay", func(ctx context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.gate(id, now, domain.PhaseBorrowRepay)
		if err != nil {
			return nil, err
		}
		c := rec.c
		pos, err := rec.position(caller)
		if err != nil {
			return nil, err
		}

		amt := nonNil(amount)
		if amt.Sign() < 0 {
			return nil, fmt.Errorf("amount %s: %w", amt, domain.ErrOutOfRange)
		}
		take := domain.MinInt(amt, pos.Debt)
		if take.Sign() == 0 {
			return nil, nil
		}
		if err := e.ledger.Pull(ctx, c.RewardAsset, caller, take); err != nil {
			return nil, fmt.Errorf("pull repayment: %w", err)
		}

		pos.Debt.Sub(pos.Debt, take)
		pos.Advanced.Sub(pos.Advanced, take)
		c.OutstandingDebt.Sub(c.OutstandingDebt, take)
		c.RewardEscrow.Add(c.RewardEscrow, take)
		consumed.Set(take)

		return newEvent(domain.EventRepaid, id, caller, take), nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}
