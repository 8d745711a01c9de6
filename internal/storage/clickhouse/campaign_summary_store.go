package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
)

// CampaignSummaryStore implements storage.CampaignSummaryStore using ClickHouse.
type CampaignSummaryStore struct {
	conn *Conn
}

// NewCampaignSummaryStore creates a new CampaignSummaryStore.
func NewCampaignSummaryStore(conn *Conn) *CampaignSummaryStore {
	return &CampaignSummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CampaignSummaryStore = (*CampaignSummaryStore)(nil)

const summaryColumns = `
	campaign_id, slot, phase, state, participants,
	total_collateral, raised_collateral, reward_supply, reward_paid,
	reward_escrow, outstanding_debt, forfeited, floor_met, snapshot_at`

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *CampaignSummaryStore) InsertBulk(ctx context.Context, summaries []*domain.CampaignSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	type key struct {
		campaignID uint64
		snapshotAt int64
	}
	seen := make(map[key]struct{}, len(summaries))
	for _, sm := range summaries {
		k := key{sm.CampaignID, sm.SnapshotAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// ReplacingMergeTree would silently overwrite; keep append-only semantics
	for _, sm := range summaries {
		exists, err := s.exists(ctx, sm.CampaignID, sm.SnapshotAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO campaign_summaries (`+summaryColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sm := range summaries {
		err = batch.Append(
			sm.CampaignID, sm.Slot, sm.Phase, sm.State, sm.Participants,
			orZero(sm.TotalCollateral), orZero(sm.RaisedCollateral), orZero(sm.RewardSupply), orZero(sm.RewardPaid),
			orZero(sm.RewardEscrow), orZero(sm.OutstandingDebt), orZero(sm.Forfeited), sm.FloorMet, sm.SnapshotAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCampaign retrieves all summaries of a campaign, ordered by snapshot_at ASC.
func (s *CampaignSummaryStore) GetByCampaign(ctx context.Context, campaignID uint64) ([]*domain.CampaignSummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM campaign_summaries FINAL
		WHERE campaign_id = ?
		ORDER BY snapshot_at ASC
	`

	rows, err := s.conn.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query by campaign: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// GetLatest retrieves the most recent summary of a campaign.
func (s *CampaignSummaryStore) GetLatest(ctx context.Context, campaignID uint64) (*domain.CampaignSummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM campaign_summaries FINAL
		WHERE campaign_id = ?
		ORDER BY snapshot_at DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, storage.ErrNotFound
	}
	return summaries[0], nil
}

func (s *CampaignSummaryStore) exists(ctx context.Context, campaignID uint64, snapshotAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM campaign_summaries FINAL
		WHERE campaign_id = ? AND snapshot_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, campaignID, snapshotAt).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSummaries(rows chRows) ([]*domain.CampaignSummary, error) {
	var summaries []*domain.CampaignSummary

	for rows.Next() {
		sm := domain.CampaignSummary{
			TotalCollateral:  new(big.Int),
			RaisedCollateral: new(big.Int),
			RewardSupply:     new(big.Int),
			RewardPaid:       new(big.Int),
			RewardEscrow:     new(big.Int),
			OutstandingDebt:  new(big.Int),
			Forfeited:        new(big.Int),
		}
		err := rows.Scan(
			&sm.CampaignID, &sm.Slot, &sm.Phase, &sm.State, &sm.Participants,
			sm.TotalCollateral, sm.RaisedCollateral, sm.RewardSupply, sm.RewardPaid,
			sm.RewardEscrow, sm.OutstandingDebt, sm.Forfeited, &sm.FloorMet, &sm.SnapshotAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summaries = append(summaries, &sm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return summaries, nil
}

// orZero maps nil amounts to zero; UInt256 columns are not nullable.
func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
