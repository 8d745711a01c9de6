package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
)

func summary(campaign uint64, at int64, total int64) *domain.CampaignSummary {
	return &domain.CampaignSummary{
		CampaignID:      campaign,
		Slot:            uint64(at),
		Phase:           "JOIN",
		State:           "CONFIGURED",
		TotalCollateral: big.NewInt(total),
		SnapshotAt:      at,
	}
}

func TestCampaignSummaryStore_InsertAndLatest(t *testing.T) {
	store := NewCampaignSummaryStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.CampaignSummary{
		summary(1, 2000, 20),
		summary(1, 1000, 10),
		summary(2, 1500, 5),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetByCampaign(ctx, 1)
	if err != nil {
		t.Fatalf("GetByCampaign failed: %v", err)
	}
	if len(all) != 2 || all[0].SnapshotAt != 1000 {
		t.Errorf("unexpected order: %+v", all)
	}

	latest, err := store.GetLatest(ctx, 1)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.TotalCollateral.Int64() != 20 {
		t.Errorf("latest total = %s, want 20", latest.TotalCollateral)
	}

	if _, err := store.GetLatest(ctx, 9); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCampaignSummaryStore_DuplicateFailsBatch(t *testing.T) {
	store := NewCampaignSummaryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.CampaignSummary{summary(1, 1000, 10)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.CampaignSummary{summary(1, 3000, 30), summary(1, 1000, 10)})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	all, _ := store.GetByCampaign(ctx, 1)
	if len(all) != 1 {
		t.Errorf("batch partially applied: %d summaries", len(all))
	}
}
