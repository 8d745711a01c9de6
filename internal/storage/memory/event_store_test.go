package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
)

func event(seq, campaign uint64, kind domain.EventKind) *domain.Event {
	return &domain.Event{
		Seq:        seq,
		EventID:    "id",
		Kind:       kind,
		CampaignID: campaign,
		Slot:       100 + seq,
		Amount:     big.NewInt(int64(seq)),
	}
}

func TestEventStore_AppendAndRange(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	for seq := uint64(1); seq <= 5; seq++ {
		if err := store.Append(ctx, event(seq, seq%2, domain.EventJoined)); err != nil {
			t.Fatalf("Append %d failed: %v", seq, err)
		}
	}

	last, err := store.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq failed: %v", err)
	}
	if last != 5 {
		t.Errorf("LastSeq = %d, want 5", last)
	}

	got, err := store.GetRange(ctx, 2, 4)
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 3 || got[0].Seq != 2 || got[2].Seq != 4 {
		t.Errorf("GetRange(2,4) returned %d events", len(got))
	}

	open, _ := store.GetRange(ctx, 4, 0)
	if len(open) != 2 {
		t.Errorf("GetRange(4,0) returned %d events, want 2", len(open))
	}

	byCampaign, _ := store.GetByCampaign(ctx, 1)
	if len(byCampaign) != 3 {
		t.Errorf("GetByCampaign(1) returned %d events, want 3", len(byCampaign))
	}
}

func TestEventStore_SequenceRules(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	if err := store.Append(ctx, event(2, 0, domain.EventJoined)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("gap: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Append(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Append(ctx, event(1, 0, domain.EventJoined)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, event(1, 0, domain.EventJoined)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("duplicate: expected ErrDuplicateKey, got %v", err)
	}
}

func TestEventStore_ReturnsCopies(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	e := event(1, 0, domain.EventJoined)
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	e.Amount.SetInt64(999)

	got, _ := store.GetRange(ctx, 1, 1)
	got[0].Amount.SetInt64(777)

	again, _ := store.GetRange(ctx, 1, 1)
	if again[0].Amount.Int64() != 1 {
		t.Errorf("stored amount mutated: %s", again[0].Amount)
	}
}

func TestEventStore_AssetApprovalsNotInCampaignZero(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	_ = store.Append(ctx, event(1, 0, domain.EventAssetApproved))
	_ = store.Append(ctx, event(2, 0, domain.EventCampaignCreated))

	got, _ := store.GetByCampaign(ctx, 0)
	if len(got) != 1 || got[0].Kind != domain.EventCampaignCreated {
		t.Errorf("GetByCampaign(0) = %v", got)
	}
}
