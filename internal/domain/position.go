package domain

import "math/big"

// Position is one participant's sub-ledger in one campaign.
type Position struct {
	CampaignID  uint64
	Participant Address

	Collateral  *big.Int // currently locked
	Contributed *big.Int // total ever deposited; reward share basis
	Debt        *big.Int // reward units drawn early and not yet repaid
	Advanced    *big.Int // unrepaid draws still to be deducted from the reward
	Forfeited   *big.Int // collateral withheld against debt at exit
	Rewarded    *big.Int // reward units paid by Reward

	Joined   bool
	Exited   bool
	Removed  bool
	Claimed  bool // reward claimed
	Refunded bool
}

// NewPosition returns an empty position.
func NewPosition(campaignID uint64, participant Address) *Position {
	return &Position{
		CampaignID:  campaignID,
		Participant: participant,
		Collateral:  new(big.Int),
		Contributed: new(big.Int),
		Debt:        new(big.Int),
		Advanced:    new(big.Int),
		Forfeited:   new(big.Int),
		Rewarded:    new(big.Int),
	}
}

// Settled reports whether the collateral leg has been paid out through Exit or Remove.
func (p *Position) Settled() bool {
	return p.Exited || p.Removed
}

// Active reports whether the participant still has collateral at stake.
func (p *Position) Active() bool {
	return p.Joined && !p.Refunded && !p.Settled()
}

// Stage names the lifecycle stage of the position.
func (p *Position) Stage() string {
	switch {
	case !p.Joined:
		return "NONE"
	case p.Refunded:
		return "REFUNDED"
	case p.Settled() && p.Claimed:
		return "COMPLETED"
	case p.Settled():
		return "EXITED"
	default:
		return "ACTIVE"
	}
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	out := *p
	out.Collateral = cloneInt(p.Collateral)
	out.Contributed = cloneInt(p.Contributed)
	out.Debt = cloneInt(p.Debt)
	out.Advanced = cloneInt(p.Advanced)
	out.Forfeited = cloneInt(p.Forfeited)
	out.Rewarded = cloneInt(p.Rewarded)
	return &out
}
