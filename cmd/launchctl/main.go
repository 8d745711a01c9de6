// Package main plays a YAML launch scenario against an in-memory engine and
// prints the resulting report. With a PostgreSQL DSN the engine journals
// every operation so cmd/server and cmd/replay can rebuild the same state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"solana-launchpad/internal/config"
	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/reporting"
	"solana-launchpad/internal/scenario"
	"solana-launchpad/internal/storage"
	"solana-launchpad/internal/storage/memory"
	"solana-launchpad/internal/storage/migrations"
	pgstore "solana-launchpad/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	scenarioPath := flag.String("scenario", "", "Scenario YAML file (required)")
	format := flag.String("format", "md", "Report format: md or csv")
	outputDir := flag.String("output-dir", "", "Write report files here instead of stdout")
	flag.Parse()

	logger := log.New(os.Stderr, "[launchctl] ", log.LstdFlags)

	if *scenarioPath == "" {
		logger.Fatal("--scenario is required")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	admins, err := cfg.AdminAddresses()
	if err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	journal, cleanup, err := openJournal(ctx, cfg)
	if err != nil {
		logger.Fatalf("open journal: %v", err)
	}
	defer cleanup()

	res, err := scenario.Run(ctx, sc, scenario.Options{
		Journal: journal,
		Admins:  admins,
		Logger:  logger,
		Metrics: observability.DefaultMetrics,
	})
	if err != nil {
		logger.Fatalf("run scenario: %v", err)
	}
	if err := res.Engine.FlushJournal(ctx); err != nil {
		logger.Printf("WARNING: %d events not journaled: %v", res.Engine.JournalBacklog(), err)
	}

	slot, _ := res.Clock.Now(ctx)
	report, err := reporting.NewGenerator(res.Engine).Generate(slot)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}
	if err := writeReport(report, *format, *outputDir); err != nil {
		logger.Fatalf("write report: %v", err)
	}

	failures := res.Failures()
	logger.Printf("Scenario %s: %d steps, %d mismatches, journal at seq %d",
		sc.Name, len(res.Steps), len(failures), res.Engine.LastSeq())
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "  step %d slot %d %s by %s: %s\n", f.Index, f.Step.Slot, f.Step.Op, f.Step.Caller, f.Failure)
	}
	if len(failures) > 0 || !report.Integrity.Passed() {
		os.Exit(1)
	}
}

// openJournal returns a postgres journal, which must be empty, or a memory
// journal when USE_MEMORY is set.
func openJournal(ctx context.Context, cfg *config.Config) (storage.EventStore, func(), error) {
	if cfg.UseMemory {
		return memory.NewEventStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	journal := pgstore.NewEventStore(pool)
	last, err := journal.LastSeq(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if last != 0 {
		pool.Close()
		return nil, nil, fmt.Errorf("journal already holds %d events; scenarios start from an empty journal", last)
	}
	return journal, pool.Close, nil
}

func writeReport(r *reporting.Report, format, dir string) error {
	type file struct{ name, body string }
	var files []file
	switch format {
	case "md", "markdown":
		files = []file{{"REPORT.md", reporting.RenderMarkdown(r)}}
	case "csv":
		files = []file{
			{"campaigns.csv", reporting.RenderCampaignCSV(r.Campaigns)},
			{"positions.csv", reporting.RenderCSV(r.Positions)},
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if dir == "" {
		for _, f := range files {
			fmt.Print(f.body)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.body), 0o644); err != nil {
			return err
		}
	}
	return nil
}
