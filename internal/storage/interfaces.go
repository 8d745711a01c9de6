package storage

import (
	"context"

	"solana-launchpad/internal/domain"
)

// EventStore provides access to the launch operation journal.
// The journal is append-only and totally ordered by Seq.
type EventStore interface {
	// Append adds an event. Seq must be exactly LastSeq()+1: returns
	// ErrDuplicateKey if Seq already exists and ErrInvalidInput on a gap.
	Append(ctx context.Context, e *domain.Event) error

	// GetRange retrieves events with Seq in [from, to] (inclusive), ordered by Seq ASC.
	// to == 0 means no upper bound.
	GetRange(ctx context.Context, from, to uint64) ([]*domain.Event, error)

	// GetByCampaign retrieves all events of a campaign, ordered by Seq ASC.
	GetByCampaign(ctx context.Context, campaignID uint64) ([]*domain.Event, error)

	// LastSeq returns the highest stored Seq, or 0 for an empty journal.
	LastSeq(ctx context.Context) (uint64, error)
}

// CampaignSummaryStore provides access to campaign_summaries storage.
type CampaignSummaryStore interface {
	// InsertBulk adds multiple summaries atomically. Fails entire batch on
	// duplicate (campaign_id, snapshot_at).
	InsertBulk(ctx context.Context, summaries []*domain.CampaignSummary) error

	// GetByCampaign retrieves all summaries of a campaign, ordered by snapshot_at ASC.
	GetByCampaign(ctx context.Context, campaignID uint64) ([]*domain.CampaignSummary, error)

	// GetLatest retrieves the most recent summary of a campaign. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, campaignID uint64) (*domain.CampaignSummary, error)
}
