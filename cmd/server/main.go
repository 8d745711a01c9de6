// Package main runs the launchpad read service:
// - Journal follower: rebuilds campaign state from the operation journal
// - Snapshots (scheduled): campaign summaries for analytics
// - HTTP: read API, health and Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-launchpad/internal/api"
	"solana-launchpad/internal/clock"
	"solana-launchpad/internal/config"
	"solana-launchpad/internal/observability"
	"solana-launchpad/internal/replay"
	"solana-launchpad/internal/reporting"
	"solana-launchpad/internal/scenario"
	"solana-launchpad/internal/solana"
	"solana-launchpad/internal/storage"
	chstore "solana-launchpad/internal/storage/clickhouse"
	"solana-launchpad/internal/storage/memory"
	"solana-launchpad/internal/storage/migrations"
	pgstore "solana-launchpad/internal/storage/postgres"
)

// Server holds all components of the read service.
type Server struct {
	cfg    *config.Config
	stores *stores
	clock  clock.Clock
	logger *log.Logger

	projector   *replay.Projector
	snapshotter *reporting.Snapshotter
	httpServer  *http.Server
}

// stores holds the journal and the summary store.
type stores struct {
	journal   storage.EventStore
	summaries storage.CampaignSummaryStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	scenarioPath := flag.String("scenario", "", "Scenario file played into the in-memory journal at startup")
	startSlot := flag.Uint64("slot", 0, "Fixed slot used when no RPC endpoint is configured")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	if *scenarioPath != "" && !cfg.UseMemory {
		logger.Fatal("--scenario requires --use-memory")
	}

	ctx, cancel := context.WithCancel(context.Background())

	st, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *scenarioPath != "" {
		if err := seedJournal(ctx, *scenarioPath, st.journal, logger); err != nil {
			logger.Fatalf("Failed to play scenario: %v", err)
		}
	}

	clk, stopClock, err := createClock(ctx, cfg, *startSlot, logger)
	if err != nil {
		logger.Fatalf("Failed to create slot clock: %v", err)
	}
	defer stopClock()

	projector, err := replay.NewProjector(replay.ProjectorOptions{
		Logger:  logger,
		Metrics: observability.DefaultMetrics,
	})
	if err != nil {
		logger.Fatalf("Failed to create projector: %v", err)
	}

	view := projector.Engine()
	server := &Server{
		cfg:         cfg,
		stores:      st,
		clock:       clk,
		logger:      logger,
		projector:   projector,
		snapshotter: reporting.NewSnapshotter(reporting.NewGenerator(view), st.summaries, clk, logger),
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(api.NewHandler(view, clk)),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores opens the journal and summary stores and applies migrations.
func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			journal:   memory.NewEventStore(),
			summaries: memory.NewCampaignSummaryStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := &stores{journal: pgstore.NewEventStore(pool)}
	cleanup := func() { pool.Close() }

	// Summaries fall back to memory when ClickHouse is not configured.
	if cfg.ClickhouseDSN == "" {
		st.summaries = memory.NewCampaignSummaryStore()
		return st, cleanup, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	st.summaries = chstore.NewCampaignSummaryStore(conn)

	return st, func() {
		conn.Close()
		pool.Close()
	}, nil
}

// createClock follows slotSubscribe when a WebSocket endpoint is set, polls
// RPC when only an HTTP endpoint is set, and otherwise pins startSlot.
func createClock(ctx context.Context, cfg *config.Config, startSlot uint64, logger *log.Logger) (clock.Clock, func(), error) {
	if cfg.RPCEndpoint == "" {
		logger.Printf("No RPC endpoint, phases evaluated at fixed slot %d", startSlot)
		return clock.NewManual(startSlot), func() {}, nil
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	if cfg.WSEndpoint == "" {
		return clock.NewRPCSlot(rpc, cfg.Commitment), func() {}, nil
	}

	ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect websocket: %w", err)
	}
	clk := clock.NewSubscribed(rpc, clock.SubscribedOptions{Logger: logger, Commitment: cfg.Commitment})
	if err := clk.Start(ctx, ws); err != nil {
		ws.Close()
		return nil, nil, err
	}
	return clk, func() {
		clk.Stop()
		ws.Close()
	}, nil
}

// seedJournal plays a scenario so the in-memory journal has history to follow.
func seedJournal(ctx context.Context, path string, journal storage.EventStore, logger *log.Logger) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	res, err := scenario.Run(ctx, sc, scenario.Options{Journal: journal, Logger: logger})
	if err != nil {
		return err
	}
	if failures := res.Failures(); len(failures) > 0 {
		logger.Printf("Scenario %s: %d of %d steps did not match expectations", sc.Name, len(failures), len(res.Steps))
	}
	return res.Engine.FlushJournal(ctx)
}

// Run starts the journal follower, the snapshot scheduler and the HTTP
// server, and blocks until ctx is cancelled or the HTTP server fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting launchpad server...")

	if n, err := s.projector.Sync(ctx, s.stores.journal); err != nil {
		return fmt.Errorf("initial journal sync: %w", err)
	} else if n > 0 {
		s.logger.Printf("Rebuilt state from %d journal events", n)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.projector.Follow(ctx, s.stores.journal, s.cfg.SyncInterval)
	}()
	go func() {
		defer wg.Done()
		s.snapshotter.Run(ctx, s.cfg.SnapshotInterval)
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("HTTP shutdown: %v", err)
	}
	wg.Wait()
	return runErr
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
