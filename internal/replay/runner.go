package replay

import (
	"context"
	"fmt"

	"solana-launchpad/internal/storage"
)

// Runner loads events from the journal and replays them in Seq order.
type Runner struct {
	events storage.EventStore
}

// NewRunner creates a new replay runner.
func NewRunner(events storage.EventStore) *Runner {
	return &Runner{events: events}
}

// Run replays events with Seq in [from, to] through handler; to == 0 means
// up to the end of the journal. Returns the Seq of the last event handled,
// or from-1 when there was nothing to replay.
func (r *Runner) Run(ctx context.Context, from, to uint64, handler Handler) (uint64, error) {
	if from == 0 {
		from = 1
	}

	events, err := r.events.GetRange(ctx, from, to)
	if err != nil {
		return from - 1, fmt.Errorf("load journal: %w", err)
	}

	SortEvents(events)
	if err := CheckOrder(events, from-1); err != nil {
		return from - 1, err
	}

	last := from - 1
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		if err := handler.OnEvent(ctx, event); err != nil {
			return last, fmt.Errorf("event %d (%s): %w", event.Seq, event.Kind, err)
		}
		last = event.Seq
	}

	return last, nil
}

// RunAll replays the whole journal through handler.
func (r *Runner) RunAll(ctx context.Context, handler Handler) (uint64, error) {
	return r.Run(ctx, 1, 0, handler)
}
