package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
)

// summaryKey is the composite key for summary deduplication.
type summaryKey struct {
	CampaignID uint64
	SnapshotAt int64
}

// CampaignSummaryStore is an in-memory implementation of storage.CampaignSummaryStore.
type CampaignSummaryStore struct {
	mu   sync.RWMutex
	data map[summaryKey]*domain.CampaignSummary
}

// NewCampaignSummaryStore creates a new in-memory campaign summary store.
func NewCampaignSummaryStore() *CampaignSummaryStore {
	return &CampaignSummaryStore{
		data: make(map[summaryKey]*domain.CampaignSummary),
	}
}

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *CampaignSummaryStore) InsertBulk(_ context.Context, summaries []*domain.CampaignSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates (both existing and intra-batch)
	batchKeys := make(map[summaryKey]bool)
	for _, sum := range summaries {
		if sum == nil {
			return storage.ErrInvalidInput
		}
		key := summaryKey{CampaignID: sum.CampaignID, SnapshotAt: sum.SnapshotAt}
		if _, exists := s.data[key]; exists || batchKeys[key] {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = true
	}

	for _, sum := range summaries {
		key := summaryKey{CampaignID: sum.CampaignID, SnapshotAt: sum.SnapshotAt}
		s.data[key] = copySummary(sum)
	}
	return nil
}

// GetByCampaign retrieves all summaries of a campaign, ordered by snapshot_at ASC.
func (s *CampaignSummaryStore) GetByCampaign(_ context.Context, campaignID uint64) ([]*domain.CampaignSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CampaignSummary
	for key, sum := range s.data {
		if key.CampaignID == campaignID {
			result = append(result, copySummary(sum))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SnapshotAt < result[j].SnapshotAt
	})
	return result, nil
}

// GetLatest retrieves the most recent summary of a campaign.
func (s *CampaignSummaryStore) GetLatest(ctx context.Context, campaignID uint64) (*domain.CampaignSummary, error) {
	all, err := s.GetByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[len(all)-1], nil
}

func copySummary(sum *domain.CampaignSummary) *domain.CampaignSummary {
	out := *sum
	for _, f := range []**big.Int{
		&out.TotalCollateral, &out.RaisedCollateral, &out.RewardSupply, &out.RewardPaid,
		&out.RewardEscrow, &out.OutstandingDebt, &out.Forfeited,
	} {
		if *f != nil {
			*f = new(big.Int).Set(*f)
		}
	}
	return &out
}

// Verify interface compliance at compile time.
var _ storage.CampaignSummaryStore = (*CampaignSummaryStore)(nil)
