package reporting

import (
	"math/big"
	"time"

	"solana-launchpad/internal/domain"
)

// Viewer is the read side of the launch engine.
type Viewer interface {
	Campaigns() []*domain.Campaign
	Positions(id uint64) ([]*domain.Position, error)
	LastSeq() uint64
	CheckInvariants() error
}

// Generator produces reports and summaries from engine state.
type Generator struct {
	viewer Viewer
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(viewer Viewer) *Generator {
	return &Generator{
		viewer: viewer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report with phases evaluated at slot.
func (g *Generator) Generate(slot uint64) (*Report, error) {
	report := &Report{
		GeneratedAt: g.now(),
		Slot:        slot,
		JournalSeq:  g.viewer.LastSeq(),
	}

	for _, c := range g.viewer.Campaigns() {
		report.Campaigns = append(report.Campaigns, campaignRow(c, slot))

		positions, err := g.viewer.Positions(c.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			report.Positions = append(report.Positions, PositionRow{
				CampaignID:  p.CampaignID,
				Participant: p.Participant,
				Stage:       p.Stage(),
				Collateral:  p.Collateral,
				Contributed: p.Contributed,
				Debt:        p.Debt,
				Forfeited:   p.Forfeited,
				Rewarded:    p.Rewarded,
			})
		}
	}

	report.Integrity.Checked = true
	if err := g.viewer.CheckInvariants(); err != nil {
		report.Integrity.Errors = append(report.Integrity.Errors, err.Error())
	}

	return report, nil
}

// Summaries returns one analytics row per campaign, stamped with the
// generator clock.
func (g *Generator) Summaries(slot uint64) []*domain.CampaignSummary {
	at := g.now().UnixMilli()

	var out []*domain.CampaignSummary
	for _, c := range g.viewer.Campaigns() {
		row := campaignRow(c, slot)
		out = append(out, &domain.CampaignSummary{
			CampaignID:       row.CampaignID,
			Slot:             slot,
			Phase:            row.Phase,
			State:            string(row.State),
			Participants:     uint32(row.Participants),
			TotalCollateral:  row.TotalCollateral,
			RaisedCollateral: row.RaisedCollateral,
			RewardSupply:     row.RewardSupply,
			RewardPaid:       row.RewardPaid,
			RewardEscrow:     row.RewardEscrow,
			OutstandingDebt:  row.OutstandingDebt,
			Forfeited:        row.Forfeited,
			FloorMet:         row.FloorMet,
			SnapshotAt:       at,
		})
	}
	return out
}

// campaignRow flattens a campaign. Unconfigured campaigns have no phase.
func campaignRow(c *domain.Campaign, slot uint64) CampaignRow {
	phase := string(domain.CampaignUnconfigured)
	if c.Configured() {
		phase = c.Schedule.PhaseAt(slot).String()
	}

	floor := c.FundingFloor()
	if floor == nil {
		floor = new(big.Int)
	}

	return CampaignRow{
		CampaignID:       c.ID,
		Phase:            phase,
		State:            c.State,
		Beneficiary:      c.Beneficiary,
		Participants:     c.Participants,
		TotalCollateral:  c.TotalCollateral,
		RaisedCollateral: c.RaisedCollateral,
		FundingFloor:     floor,
		FundingCap:       c.FundingCap,
		FloorMet:         c.Configured() && c.FloorReached(),
		RewardSupply:     c.RewardSupply,
		RewardPaid:       c.RewardPaid,
		RewardEscrow:     c.RewardEscrow,
		OutstandingDebt:  c.OutstandingDebt,
		Forfeited:        c.Forfeited,
		AuxParam:         orZero(c.AuxParam),
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
