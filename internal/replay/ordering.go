package replay

import (
	"fmt"
	"sort"

	"solana-launchpad/internal/domain"
)

// SortEvents orders events by Seq ASC.
func SortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Seq < events[j].Seq
	})
}

// CheckOrder verifies that events continue the journal after seq without
// gaps or repeats.
func CheckOrder(events []*domain.Event, after uint64) error {
	want := after + 1
	for _, e := range events {
		if e.Seq != want {
			return fmt.Errorf("expected seq %d, got %d: %w", want, e.Seq, ErrInvalidOrdering)
		}
		want++
	}
	return nil
}
