package launch

import (
	"fmt"
	"math/big"
	"sort"

	"solana-launchpad/internal/domain"
)

// Campaign returns a copy of campaign id.
func (e *Engine) Campaign(id uint64) (*domain.Campaign, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.campaign(id)
	if err != nil {
		return nil, err
	}
	return rec.c.Clone(), nil
}

// Campaigns returns copies of every campaign in id order.
func (e *Engine) Campaigns() []*domain.Campaign {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*domain.Campaign, len(e.campaigns))
	for i, rec := range e.campaigns {
		out[i] = rec.c.Clone()
	}
	return out
}

// Position returns a copy of addr's position in campaign id. Returns
// ErrNotJoined if addr never joined.
func (e *Engine) Position(id uint64, addr domain.Address) (*domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.campaign(id)
	if err != nil {
		return nil, err
	}
	pos, err := rec.position(addr)
	if err != nil {
		return nil, err
	}
	return pos.Clone(), nil
}

// Positions returns copies of every position in campaign id, in join order.
// Terminal positions are included.
func (e *Engine) Positions(id uint64) ([]*domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.campaign(id)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Position, 0, len(rec.joinOrder))
	for _, addr := range rec.joinOrder {
		out = append(out, rec.positions[addr].Clone())
	}
	return out, nil
}

// Whitelisted reports whether addr may join campaign id.
func (e *Engine) Whitelisted(id uint64, addr domain.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.campaign(id)
	if err != nil {
		return false, err
	}
	_, ok := rec.whitelist[addr]
	return ok, nil
}

// Whitelist returns campaign id's whitelist in the order addresses were added.
func (e *Engine) Whitelist(id uint64) ([]domain.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.campaign(id)
	if err != nil {
		return nil, err
	}
	return append([]domain.Address(nil), rec.listOrder...), nil
}

// ApprovedAssets returns the approved collateral assets in base58 order.
func (e *Engine) ApprovedAssets() []domain.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Address, 0, len(e.approved))
	for a := range e.approved {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// CheckInvariants verifies the ledger identities of every campaign:
// totalCollateral is the sum of position collateral, outstanding debt is
// the sum of position debt, no position exceeds its debt ceiling, rewards
// paid never exceed the supply, and escrow still covers every unclaimed
// share net of its advance.
func (e *Engine) CheckInvariants() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range e.campaigns {
		c := rec.c
		collateral, debt, owed := new(big.Int), new(big.Int), new(big.Int)
		for _, pos := range rec.positions {
			collateral.Add(collateral, pos.Collateral)
			debt.Add(debt, pos.Debt)
			if !pos.Claimed && !pos.Refunded {
				owed.Add(owed, rewardShare(c, pos))
				owed.Sub(owed, pos.Advanced)
			}
			if ceiling := c.DebtCeiling(pos.Collateral); pos.Debt.Cmp(ceiling) > 0 {
				return fmt.Errorf("campaign %d: %s debt %s above ceiling %s", c.ID, pos.Participant, pos.Debt, ceiling)
			}
		}
		if collateral.Cmp(c.TotalCollateral) != 0 {
			return fmt.Errorf("campaign %d: total collateral %s, positions hold %s", c.ID, c.TotalCollateral, collateral)
		}
		if debt.Cmp(c.OutstandingDebt) != 0 {
			return fmt.Errorf("campaign %d: outstanding debt %s, positions owe %s", c.ID, c.OutstandingDebt, debt)
		}
		if c.RewardPaid.Cmp(c.RewardSupply) > 0 {
			return fmt.Errorf("campaign %d: rewards paid %s above supply %s", c.ID, c.RewardPaid, c.RewardSupply)
		}
		if owed.Cmp(c.RewardEscrow) > 0 {
			return fmt.Errorf("campaign %d: reward escrow %s below unclaimed shares %s", c.ID, c.RewardEscrow, owed)
		}
		if c.TotalCollateral.Cmp(c.FundingCap) > 0 {
			return fmt.Errorf("campaign %d: total collateral %s above cap %s", c.ID, c.TotalCollateral, c.FundingCap)
		}
	}
	return nil
}
