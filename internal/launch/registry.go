package launch

import (
	"context"
	"fmt"
	"math/big"

	"solana-launchpad/internal/domain"
)

// ApproveCollateralAsset adds asset to the set of accepted collateral kinds.
// Admin only; approving an approved asset is a no-op.
func (e *Engine) ApproveCollateralAsset(ctx context.Context, caller, asset domain.Address) error {
	return e.run(ctx, "approve_asset", func(_ context.Context, _ uint64) (*domain.Event, error) {
		if !e.auth.IsAdmin(caller) {
			return nil, fmt.Errorf("%s: %w", caller, domain.ErrUnauthorized)
		}
		if asset.IsZero() {
			return nil, fmt.Errorf("asset: %w", domain.ErrInvalidAddress)
		}
		if _, ok := e.approved[asset]; ok {
			return nil, nil
		}
		e.approved[asset] = struct{}{}
		return withPayload(newEvent(domain.EventAssetApproved, 0, caller, nil), domain.AssetPayload{Asset: asset})
	})
}

// CreateCampaign registers a new campaign and pulls its reward supply from
// caller into escrow. Admin only. Returns the new campaign id; ids are
// assigned sequentially from 0.
func (e *Engine) CreateCampaign(ctx context.Context, caller domain.Address, p domain.CampaignParams) (uint64, error) {
	var id uint64
	err := e.run(ctx, "create_campaign", func(ctx context.Context, now uint64) (*domain.Event, error) {
		if !e.auth.IsAdmin(caller) {
			return nil, fmt.Errorf("%s: %w", caller, domain.ErrUnauthorized)
		}
		if err := validateParams(p); err != nil {
			return nil, err
		}
		if _, ok := e.approved[p.CollateralAsset]; !ok {
			return nil, fmt.Errorf("%s: %w", p.CollateralAsset, domain.ErrUnapprovedAsset)
		}

		supply := nonNil(p.RewardSupply)
		if err := e.ledger.Pull(ctx, p.RewardAsset, caller, supply); err != nil {
			return nil, fmt.Errorf("fund reward escrow: %w", err)
		}

		id = uint64(len(e.campaigns))
		c := &domain.Campaign{
			ID: id,
			CampaignParams: domain.CampaignParams{
				RewardAsset:     p.RewardAsset,
				CollateralAsset: p.CollateralAsset,
				Beneficiary:     p.Beneficiary,
				CollateralRatio: new(big.Int).Set(p.CollateralRatio),
				BorrowRatio:     new(big.Int).Set(p.BorrowRatio),
				RewardSupply:    new(big.Int).Set(supply),
				FundingCap:      nonNil(p.FundingCap),
			},
			State:            domain.CampaignUnconfigured,
			TotalCollateral:  new(big.Int),
			RaisedCollateral: new(big.Int),
			RewardEscrow:     new(big.Int).Set(supply),
			RewardPaid:       new(big.Int),
			OutstandingDebt:  new(big.Int),
			Forfeited:        new(big.Int),
			CreatedSlot:      now,
		}
		e.campaigns = append(e.campaigns, &campaignRecord{
			c:         c,
			whitelist: make(map[domain.Address]struct{}),
			positions: make(map[domain.Address]*domain.Position),
		})
		e.metrics.RecordCampaignCreated(len(e.campaigns))

		return withPayload(newEvent(domain.EventCampaignCreated, id, caller, supply), c.CampaignParams)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// validateParams enforces 0 < borrowRatio <= collateralRatio <= 1e18 and
// non-negative amounts.
func validateParams(p domain.CampaignParams) error {
	if p.CollateralRatio == nil || p.BorrowRatio == nil {
		return fmt.Errorf("ratios must be set: %w", domain.ErrInvalidRatio)
	}
	if p.BorrowRatio.Sign() <= 0 || p.BorrowRatio.Cmp(p.CollateralRatio) > 0 || p.CollateralRatio.Cmp(domain.RatioScale) > 0 {
		return fmt.Errorf("collateral ratio %s, borrow ratio %s: %w", p.CollateralRatio, p.BorrowRatio, domain.ErrInvalidRatio)
	}
	if p.Beneficiary.IsZero() {
		return fmt.Errorf("beneficiary: %w", domain.ErrInvalidAddress)
	}
	if p.RewardAsset.IsZero() {
		return fmt.Errorf("reward asset: %w", domain.ErrInvalidAddress)
	}
	if nonNil(p.RewardSupply).Sign() < 0 || nonNil(p.FundingCap).Sign() < 0 {
		return fmt.Errorf("negative supply or cap: %w", domain.ErrOutOfRange)
	}
	return nil
}

// nonNil copies v, mapping nil to zero.
func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
