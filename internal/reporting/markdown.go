package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Launchpad Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Slot: %d | Journal seq: %d | Campaigns: %d | Positions: %d\n\n",
		r.Slot, r.JournalSeq, len(r.Campaigns), len(r.Positions)))

	// Integrity
	sb.WriteString("## Integrity\n\n")
	switch {
	case !r.Integrity.Checked:
		sb.WriteString("No integrity checks performed.\n\n")
	case r.Integrity.Passed():
		sb.WriteString("**All ledger invariants hold.**\n\n")
	default:
		for _, err := range r.Integrity.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Campaigns
	sb.WriteString("## Campaigns\n\n")
	if len(r.Campaigns) > 0 {
		sb.WriteString("| ID | Phase | Participants | Collateral | Raised | Floor | Floor Met | Cap | Reward Supply | Paid | Escrow | Debt | Forfeited |\n")
		sb.WriteString("|----|-------|--------------|------------|--------|-------|-----------|-----|---------------|------|--------|------|-----------|\n")
		for _, c := range r.Campaigns {
			floorMet := "no"
			if c.FloorMet {
				floorMet = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				c.CampaignID, c.Phase, c.Participants,
				c.TotalCollateral, c.RaisedCollateral, c.FundingFloor, floorMet, c.FundingCap,
				c.RewardSupply, c.RewardPaid, c.RewardEscrow, c.OutstandingDebt, c.Forfeited))
		}
	} else {
		sb.WriteString("No campaigns.\n")
	}
	sb.WriteString("\n")

	// Positions
	sb.WriteString("## Positions\n\n")
	if len(r.Positions) > 0 {
		sb.WriteString("| Campaign | Participant | Stage | Collateral | Contributed | Debt | Forfeited | Rewarded |\n")
		sb.WriteString("|----------|-------------|-------|------------|-------------|------|-----------|----------|\n")
		for _, p := range r.Positions {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				p.CampaignID, p.Participant, p.Stage,
				p.Collateral, p.Contributed, p.Debt, p.Forfeited, p.Rewarded))
		}
	} else {
		sb.WriteString("No positions.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
