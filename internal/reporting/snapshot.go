package reporting

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/storage"
)

// Snapshotter periodically writes campaign summaries to the analytics store.
type Snapshotter struct {
	gen    *Generator
	store  storage.CampaignSummaryStore
	clock  clock.Clock
	logger *log.Logger
}

// NewSnapshotter creates a snapshotter. A nil logger uses log.Default().
func NewSnapshotter(gen *Generator, store storage.CampaignSummaryStore, clk clock.Clock, logger *log.Logger) *Snapshotter {
	if logger == nil {
		logger = log.Default()
	}
	return &Snapshotter{gen: gen, store: store, clock: clk, logger: logger}
}

// Snapshot writes one summary per campaign and returns how many were stored.
func (s *Snapshotter) Snapshot(ctx context.Context) (int, error) {
	slot, err := s.clock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("read slot: %w", err)
	}

	summaries := s.gen.Summaries(slot)
	if len(summaries) == 0 {
		return 0, nil
	}

	start := time.Now()
	err = s.store.InsertBulk(ctx, summaries)
	observability.RecordDBQuery("summaries", "insert_bulk", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("store summaries: %w", err)
	}

	observability.RecordSnapshot(time.Now())
	return len(summaries), nil
}

// Run snapshots every interval until ctx is done.
func (s *Snapshotter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Snapshot(ctx); err != nil {
				s.logger.Printf("snapshot failed: %v", err)
			} else if n > 0 {
				s.logger.Printf("stored %d campaign summaries", n)
			}
		}
	}
}
