package reporting

import (
	"fmt"
	"strings"

	"solana-launchpad/internal/domain"
)

// RenderCSV renders positions as CSV string.
func RenderCSV(positions []PositionRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("campaign_id,participant,stage,collateral,contributed,debt,forfeited,rewarded\n")

	// Rows
	for _, p := range positions {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s,%s,%s\n",
			p.CampaignID,
			p.Participant,
			p.Stage,
			p.Collateral,
			p.Contributed,
			p.Debt,
			p.Forfeited,
			p.Rewarded,
		))
	}

	return sb.String()
}

// RenderCampaignCSV renders campaign rows as CSV string.
func RenderCampaignCSV(campaigns []CampaignRow) string {
	var sb strings.Builder

	sb.WriteString("campaign_id,phase,state,participants,total_collateral,raised_collateral,funding_floor,floor_met,")
	sb.WriteString("funding_cap,reward_supply,reward_paid,reward_escrow,outstanding_debt,forfeited,aux_param\n")

	for _, c := range campaigns {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%d,%s,%s,%s,%t,%s,%s,%s,%s,%s,%s,%s\n",
			c.CampaignID,
			c.Phase,
			c.State,
			c.Participants,
			c.TotalCollateral,
			c.RaisedCollateral,
			c.FundingFloor,
			c.FloorMet,
			c.FundingCap,
			c.RewardSupply,
			c.RewardPaid,
			c.RewardEscrow,
			c.OutstandingDebt,
			c.Forfeited,
			c.AuxParam,
		))
	}

	return sb.String()
}

// RenderSummaryCSV renders stored campaign summaries as CSV string.
func RenderSummaryCSV(summaries []*domain.CampaignSummary) string {
	var sb strings.Builder

	sb.WriteString("campaign_id,snapshot_at,slot,phase,state,participants,total_collateral,raised_collateral,")
	sb.WriteString("floor_met,reward_supply,reward_paid,reward_escrow,outstanding_debt,forfeited\n")

	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%d,%d,%d,%s,%s,%d,%s,%s,%t,%s,%s,%s,%s,%s\n",
			s.CampaignID,
			s.SnapshotAt,
			s.Slot,
			s.Phase,
			s.State,
			s.Participants,
			s.TotalCollateral,
			s.RaisedCollateral,
			s.FloorMet,
			s.RewardSupply,
			s.RewardPaid,
			s.RewardEscrow,
			s.OutstandingDebt,
			s.Forfeited,
		))
	}

	return sb.String()
}
