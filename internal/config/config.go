// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"solana-launchpad/internal/domain"
)

// Config is the shared configuration of the launchpad commands.
type Config struct {
	RPCEndpoint string `env:"SOLANA_RPC_ENDPOINT"`
	WSEndpoint  string `env:"SOLANA_WS_ENDPOINT"`
	Commitment  string `env:"SOLANA_COMMITMENT" envDefault:"confirmed"`

	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`
	UseMemory     bool   `env:"USE_MEMORY"`

	// Admins are base58 addresses granted admin authority at startup.
	Admins []string `env:"LAUNCH_ADMINS" envSeparator:","`

	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1m"`
	SyncInterval     time.Duration `env:"JOURNAL_SYNC_INTERVAL" envDefault:"2s"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.Admins = trimCSV(cfg.Admins)
	return &cfg, nil
}

// RegisterFlags binds command-line overrides for the storage and endpoint
// settings. Current values act as flag defaults, so flags win over env.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.RPCEndpoint, "rpc-endpoint", c.RPCEndpoint, "Solana RPC HTTP endpoint")
	fs.StringVar(&c.WSEndpoint, "ws-endpoint", c.WSEndpoint, "Solana WebSocket endpoint")
	fs.StringVar(&c.Commitment, "commitment", c.Commitment, "Slot commitment level")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", c.ClickhouseDSN, "ClickHouse connection string")
	fs.BoolVar(&c.UseMemory, "use-memory", c.UseMemory, "Use in-memory storage instead of PostgreSQL")
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "Read API and metrics HTTP address")
	fs.DurationVar(&c.SnapshotInterval, "snapshot-interval", c.SnapshotInterval, "Campaign summary snapshot interval")
	fs.DurationVar(&c.SyncInterval, "sync-interval", c.SyncInterval, "Journal polling interval")
}

// Validate checks settings that do not depend on which command runs.
func (c *Config) Validate() error {
	var errs []error
	if !c.UseMemory && c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required unless USE_MEMORY is set"))
	}
	if c.SnapshotInterval <= 0 {
		errs = append(errs, fmt.Errorf("snapshot interval must be positive, got %s", c.SnapshotInterval))
	}
	if c.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval))
	}
	if _, err := c.AdminAddresses(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AdminAddresses parses Admins.
func (c *Config) AdminAddresses() ([]domain.Address, error) {
	out := make([]domain.Address, 0, len(c.Admins))
	for _, s := range c.Admins {
		addr, err := domain.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("LAUNCH_ADMINS entry %q: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
