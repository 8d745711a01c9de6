// Package main prints campaign summary history from the analytics store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/config"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/reporting"
	"solana-launchpad/internal/scenario"
	"solana-launchpad/internal/storage"
	chstore "solana-launchpad/internal/storage/clickhouse"
	"solana-launchpad/internal/storage/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.RegisterFlags(flag.CommandLine)
	campaignID := flag.Int64("campaign-id", -1, "Campaign to report (-1 = every campaign)")
	latest := flag.Bool("latest", false, "Only the most recent summary per campaign")
	outputDir := flag.String("output-dir", "", "Write CAMPAIGN_SUMMARIES.csv here instead of stdout")
	fixture := flag.String("scenario", "", "With --use-memory: play this scenario and snapshot it instead of reading ClickHouse")
	flag.Parse()

	ctx := context.Background()

	if !cfg.UseMemory && cfg.ClickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --clickhouse-dsn is required when not using memory")
		fmt.Fprintln(os.Stderr, "Use --use-memory --scenario <file> to report on a scenario instead")
		os.Exit(1)
	}

	store, err := createStore(ctx, cfg, *fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating summary store: %v\n", err)
		os.Exit(1)
	}

	summaries, err := collect(ctx, store, *campaignID, *latest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading summaries: %v\n", err)
		os.Exit(1)
	}

	body := reporting.RenderSummaryCSV(summaries)
	if *outputDir == "" {
		fmt.Print(body)
		return
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(*outputDir, "CAMPAIGN_SUMMARIES.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d summaries to %s\n", len(summaries), path)
}

// createStore connects to ClickHouse, or builds a memory store holding one
// snapshot of the given scenario's final state.
func createStore(ctx context.Context, cfg *config.Config, path string) (storage.CampaignSummaryStore, error) {
	if !cfg.UseMemory {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return chstore.NewCampaignSummaryStore(conn), nil
	}

	store := memory.NewCampaignSummaryStore()
	if path == "" {
		return store, nil
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := scenario.Run(ctx, sc, scenario.Options{})
	if err != nil {
		return nil, err
	}
	slot, _ := res.Clock.Now(ctx)
	snap := reporting.NewSnapshotter(reporting.NewGenerator(res.Engine), store, clock.NewManual(slot), nil)
	if _, err := snap.Snapshot(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// collect reads summaries of one campaign, or of every campaign when id is
// negative. Campaign ids are dense from 0, so the walk stops at the first
// campaign without summaries.
func collect(ctx context.Context, store storage.CampaignSummaryStore, id int64, latestOnly bool) ([]*domain.CampaignSummary, error) {
	read := func(id uint64) ([]*domain.CampaignSummary, error) {
		if latestOnly {
			s, err := store.GetLatest(ctx, id)
			if err != nil {
				return nil, err
			}
			return []*domain.CampaignSummary{s}, nil
		}
		return store.GetByCampaign(ctx, id)
	}

	if id >= 0 {
		return read(uint64(id))
	}

	var out []*domain.CampaignSummary
	for next := uint64(0); ; next++ {
		batch, err := read(next)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && len(batch) == 0) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("campaign %d: %w", next, err)
		}
		out = append(out, batch...)
	}
}
