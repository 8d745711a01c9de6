package launch

import (
	"context"
	"fmt"
	"math/big"

	"solana-launchpad/internal/domain"
)

// Configure sets the phase schedule and contribution bounds of a campaign.
// Only the beneficiary may configure, and only once.
func (e *Engine) Configure(ctx context.Context, caller domain.Address, id uint64, s domain.Schedule, p domain.ConfigureParams) error {
	return e.run(ctx, "configure", func(_ context.Context, now uint64) (*domain.Event, error) {
		rec, err := e.campaign(id)
		if err != nil {
			return nil, err
		}
		c := rec.c
		if caller != c.Beneficiary {
			return nil, fmt.Errorf("%s is not beneficiary of campaign %d: %w", caller, id, domain.ErrUnauthorized)
		}
		if c.Configured() {
			return nil, fmt.Errorf("campaign %d: %w", id, domain.ErrAlreadyConfigured)
		}
		if err := s.Validate(now); err != nil {
			return nil, err
		}

		params := domain.ConfigureParams{
			AuxParam:        nonNil(p.AuxParam),
			MinContribution: nonNil(p.MinContribution),
			MaxContribution: nonNil(p.MaxContribution),
			Floor:           nonNil(p.Floor),
		}
		if err := validateBounds(params, c.FundingCap); err != nil {
			return nil, err
		}

		c.Schedule = s
		c.ConfigureParams = params
		c.State = domain.CampaignConfigured

		return withPayload(newEvent(domain.EventConfigured, id, caller, nil),
			domain.ConfiguredPayload{Schedule: s, Params: params})
	})
}

// validateBounds rejects bounds the funding cap makes unreachable: a
// minimum, maximum or floor above the cap.
func validateBounds(p domain.ConfigureParams, fundingCap *big.Int) error {
	if p.MinContribution.Sign() < 0 || p.MaxContribution.Sign() < 0 || p.Floor.Sign() < 0 || p.AuxParam.Sign() < 0 {
		return fmt.Errorf("negative bound: %w", domain.ErrInvalidBounds)
	}
	if p.MaxContribution.Sign() != 0 && p.MaxContribution.Cmp(p.MinContribution) < 0 {
		return fmt.Errorf("max %s below min %s: %w", p.MaxContribution, p.MinContribution, domain.ErrInvalidBounds)
	}
	for _, b := range []struct {
		name string
		v    *big.Int
	}{
		{"min", p.MinContribution},
		{"max", p.MaxContribution},
		{"floor", p.Floor},
	} {
		if b.v.Cmp(fundingCap) > 0 {
			return fmt.Errorf("%s %s above funding cap %s: %w", b.name, b.v, fundingCap, domain.ErrInvalidBounds)
		}
	}
	return nil
}

// AddToWhitelist admits addrs to a campaign. Beneficiary only; allowed in
// any phase. Listing an address twice is a no-op.
func (e *Engine) AddToWhitelist(ctx context.Context, caller domain.Address, id uint64, addrs []domain.Address) error {
	return e.run(ctx, "whitelist", func(_ context.Context, _ uint64) (*domain.Event, error) {
		rec, err := e.campaign(id)
		if err != nil {
			return nil, err
		}
		if caller != rec.c.Beneficiary {
			return nil, fmt.Errorf("%s is not beneficiary of campaign %d: %w", caller, id, domain.ErrUnauthorized)
		}

		var added []domain.Address
		for _, a := range addrs {
			if _, ok := rec.whitelist[a]; ok {
				continue
			}
			rec.whitelist[a] = struct{}{}
			rec.listOrder = append(rec.listOrder, a)
			added = append(added, a)
		}
		if len(added) == 0 {
			return nil, nil
		}
		return withPayload(newEvent(domain.EventWhitelisted, id, caller, nil), domain.WhitelistPayload{Addresses: added})
	})
}

// CurrentPhase returns the phase of a configured campaign at now.
func (e *Engine) CurrentPhase(id uint64, now uint64) (domain.Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.configured(id)
	if err != nil {
		return domain.PhasePreJoin, err
	}
	return rec.c.Schedule.PhaseAt(now), nil
}
