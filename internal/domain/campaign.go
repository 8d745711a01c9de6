package domain

import "math/big"

// CampaignState tracks the one-shot configuration transition.
type CampaignState string

// Campaign states.
const (
	CampaignUnconfigured CampaignState = "UNCONFIGURED"
	CampaignConfigured   CampaignState = "CONFIGURED"
)

// CampaignParams are the immutable parameters supplied at creation.
type CampaignParams struct {
	RewardAsset     Address  `json:"reward_asset"`
	CollateralAsset Address  `json:"collateral_asset"`
	Beneficiary     Address  `json:"beneficiary"`
	CollateralRatio *big.Int `json:"collateral_ratio"` // 1e18 fixed point
	BorrowRatio     *big.Int `json:"borrow_ratio"`     // 1e18 fixed point
	RewardSupply    *big.Int `json:"reward_supply"`
	FundingCap      *big.Int `json:"funding_cap"`
}

// ConfigureParams are the per-campaign bounds set together with the schedule.
type ConfigureParams struct {
	// AuxParam is stored and reported but not interpreted.
	AuxParam        *big.Int `json:"aux_param"`
	MinContribution *big.Int `json:"min_contribution"`
	MaxContribution *big.Int `json:"max_contribution"` // 0 = unbounded
	// Floor is the minimum aggregate collateral. Zero means MinContribution.
	Floor *big.Int `json:"floor"`
}

// Campaign is one launch event and its running totals.
type Campaign struct {
	ID uint64
	CampaignParams

	State    CampaignState
	Schedule Schedule
	ConfigureParams

	TotalCollateral  *big.Int // sum of live position collateral
	RaisedCollateral *big.Int // sum of all contributions; never decreases
	RewardEscrow     *big.Int // reward units still held for this campaign
	RewardPaid       *big.Int // reward units paid through Reward
	OutstandingDebt  *big.Int // sum of position debt
	Forfeited        *big.Int // collateral withheld at exit, not yet swept
	Participants     int

	CreatedSlot uint64
}

// Configured reports whether the one-shot configuration has happened.
func (c *Campaign) Configured() bool {
	return c.State == CampaignConfigured
}

// FundingFloor returns the aggregate collateral the campaign must attract.
func (c *Campaign) FundingFloor() *big.Int {
	if c.Floor != nil && c.Floor.Sign() > 0 {
		return c.Floor
	}
	return cloneInt(c.MinContribution)
}

// FloorReached reports whether contributions have reached the funding floor.
// It is measured on raised collateral, so settlement exits and refunds do
// not change the outcome.
func (c *Campaign) FloorReached() bool {
	return c.RaisedCollateral.Cmp(c.FundingFloor()) >= 0
}

// FloorFailed reports whether the campaign is in refund-only mode at now:
// the join window has closed and contributions stayed below the floor.
func (c *Campaign) FloorFailed(now uint64) bool {
	if !c.Configured() || c.Schedule.PhaseAt(now) < PhaseAdd {
		return false
	}
	return !c.FloorReached()
}

// DebtCeiling returns borrowRatio * collateral / collateralRatio.
func (c *Campaign) DebtCeiling(collateral *big.Int) *big.Int {
	return MulDiv(c.BorrowRatio, collateral, c.CollateralRatio)
}

// Clone returns a deep copy.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.CollateralRatio = cloneInt(c.CollateralRatio)
	out.BorrowRatio = cloneInt(c.BorrowRatio)
	out.RewardSupply = cloneInt(c.RewardSupply)
	out.FundingCap = cloneInt(c.FundingCap)
	out.AuxParam = cloneInt(c.AuxParam)
	out.MinContribution = cloneInt(c.MinContribution)
	out.MaxContribution = cloneInt(c.MaxContribution)
	out.Floor = cloneInt(c.Floor)
	out.TotalCollateral = cloneInt(c.TotalCollateral)
	out.RaisedCollateral = cloneInt(c.RaisedCollateral)
	out.RewardEscrow = cloneInt(c.RewardEscrow)
	out.RewardPaid = cloneInt(c.RewardPaid)
	out.OutstandingDebt = cloneInt(c.OutstandingDebt)
	out.Forfeited = cloneInt(c.Forfeited)
	return &out
}
