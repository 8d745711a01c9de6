// Package main rebuilds launch state from the operation journal, verifies
// it, and prints the resulting report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"solana-launchpad/internal/config"
	"solana-launchpad/internal/domain"
	"solana-launchpad/internal/replay"
	"solana-launchpad/internal/reporting"
	pgstore "solana-launchpad/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	toSeq := flag.Uint64("to-seq", 0, "Stop after this journal sequence (0 = replay everything)")
	slot := flag.Uint64("slot", 0, "Slot for phase evaluation in the report (0 = slot of the last event)")
	outputJSON := flag.Bool("json", false, "Output stats and report as JSON")
	verbose := flag.Bool("verbose", false, "Print every replayed event")
	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if cfg.PostgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
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

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()
	journal := pgstore.NewEventStore(pool)

	projector, err := replay.NewProjector(replay.ProjectorOptions{Logger: logger})
	if err != nil {
		logger.Fatalf("create projector: %v", err)
	}

	stats := &ReplayStats{ByKind: make(map[domain.EventKind]int)}
	handler := replay.HandlerFunc(func(ctx context.Context, e *domain.Event) error {
		if err := projector.OnEvent(ctx, e); err != nil {
			return err
		}
		stats.observe(e)
		if *verbose && !*outputJSON {
			fmt.Printf("seq=%d slot=%d kind=%s campaign=%d actor=%s amount=%s\n",
				e.Seq, e.Slot, e.Kind, e.CampaignID, e.Actor, amountString(e))
		}
		return nil
	})

	if _, err := replay.NewRunner(journal).Run(ctx, 1, *toSeq, handler); err != nil {
		logger.Fatalf("replay failed at seq %d: %v", projector.LastSeq(), err)
	}

	at := *slot
	if at == 0 {
		at = stats.LastSlot
	}
	report, err := reporting.NewGenerator(projector.Engine()).Generate(at)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(struct {
			Stats  *ReplayStats      `json:"stats"`
			Report *reporting.Report `json:"report"`
		}{stats, report}, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\n=== Replay Summary ===\n")
		fmt.Printf("Total Events:  %d\n", stats.TotalEvents)
		fmt.Printf("Last Seq:      %d\n", projector.LastSeq())
		if stats.TotalEvents > 0 {
			fmt.Printf("Slots:         %d - %d\n", stats.FirstSlot, stats.LastSlot)
		}
		kinds := make([]string, 0, len(stats.ByKind))
		for k := range stats.ByKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("  %-22s %d\n", k, stats.ByKind[domain.EventKind(k)])
		}
		fmt.Println()
		fmt.Print(reporting.RenderMarkdown(report))
	}

	if !report.Integrity.Passed() {
		os.Exit(1)
	}
}

// ReplayStats holds replay statistics.
type ReplayStats struct {
	TotalEvents int                      `json:"total_events"`
	ByKind      map[domain.EventKind]int `json:"by_kind"`
	FirstSlot   uint64                   `json:"first_slot"`
	LastSlot    uint64                   `json:"last_slot"`
}

func (s *ReplayStats) observe(e *domain.Event) {
	if s.TotalEvents == 0 || e.Slot < s.FirstSlot {
		s.FirstSlot = e.Slot
	}
	if e.Slot > s.LastSlot {
		s.LastSlot = e.Slot
	}
	s.TotalEvents++
	s.ByKind[e.Kind]++
}

func amountString(e *domain.Event) string {
	if e.Amount == nil {
		return "-"
	}
	return e.Amount.String()
}
