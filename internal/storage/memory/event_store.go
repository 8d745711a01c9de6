package memory

import (
	"context"
	"math/big"
	"sync"

	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data []*domain.Event // index i holds Seq i+1
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make([]*domain.Event, 0),
	}
}

// Append adds an event. Seq must follow the last stored Seq.
func (s *EventStore) Append(_ context.Context, e *domain.Event) error {
	if e == nil || e.Seq == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last := uint64(len(s.data))
	if e.Seq <= last {
		return storage.ErrDuplicateKey
	}
	if e.Seq != last+1 {
		return storage.ErrInvalidInput
	}

	s.data = append(s.data, copyEvent(e))
	return nil
}

// GetRange retrieves events with Seq in [from, to]; to == 0 means no upper bound.
func (s *EventStore) GetRange(_ context.Context, from, to uint64) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if e.Seq < from || (to != 0 && e.Seq > to) {
			continue
		}
		result = append(result, copyEvent(e))
	}
	return result, nil
}

// GetByCampaign retrieves all events of a campaign, ordered by Seq.
// Asset approvals are not campaign events and are never returned.
func (s *EventStore) GetByCampaign(_ context.Context, campaignID uint64) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if e.CampaignID == campaignID && e.Kind != domain.EventAssetApproved {
			result = append(result, copyEvent(e))
		}
	}
	return result, nil
}

// LastSeq returns the highest stored Seq.
func (s *EventStore) LastSeq(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.data)), nil
}

func copyEvent(e *domain.Event) *domain.Event {
	out := *e
	if e.Amount != nil {
		out.Amount = new(big.Int).Set(e.Amount)
	}
	if e.Payload != nil {
		out.Payload = append([]byte(nil), e.Payload...)
	}
	return &out
}

// Verify interface compliance at compile time.
var _ storage.EventStore = (*EventStore)(nil)
