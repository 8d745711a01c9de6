package reporting

import (
	"math/big"
	"time"

	"solana-launchpad/internal/domain"
)

// Report is a point-in-time view of every campaign and position.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Slot        uint64
	JournalSeq  uint64

	// Campaigns sorted by id
	Campaigns []CampaignRow

	// Positions sorted by campaign id, then join order
	Positions []PositionRow

	// Integrity holds the ledger invariant check result
	Integrity IntegritySection
}

// IntegritySection reports the ledger invariant check.
type IntegritySection struct {
	Checked bool
	Errors  []string
}

// Passed reports whether the invariant check ran and found nothing.
func (s IntegritySection) Passed() bool {
	return s.Checked && len(s.Errors) == 0
}

// CampaignRow represents one row in the campaign table.
type CampaignRow struct {
	CampaignID       uint64
	Phase            string
	State            domain.CampaignState
	Beneficiary      domain.Address
	Participants     int
	TotalCollateral  *big.Int
	RaisedCollateral *big.Int
	FundingFloor     *big.Int
	FundingCap       *big.Int
	FloorMet         bool
	RewardSupply     *big.Int
	RewardPaid       *big.Int
	RewardEscrow     *big.Int
	OutstandingDebt  *big.Int
	Forfeited        *big.Int
	AuxParam         *big.Int
}

// PositionRow represents one participant position.
type PositionRow struct {
	CampaignID  uint64
	Participant domain.Address
	Stage       string
	Collateral  *big.Int
	Contributed *big.Int
	Debt        *big.Int
	Forfeited   *big.Int
	Rewarded    *big.Int
}
