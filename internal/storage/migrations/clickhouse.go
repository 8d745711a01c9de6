package migrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	chstore "solana-launchpad/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the summary database named in dsn and its
// tables, and returns a connection bound to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	bootstrap, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("summary store bootstrap: %w", err)
	}
	if err := bootstrap.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		bootstrap.Close()
		return nil, fmt.Errorf("create summary database %s: %w", dbName, err)
	}
	if err := bootstrap.Close(); err != nil {
		return nil, fmt.Errorf("summary store bootstrap: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("open summary database %s: %w", dbName, err)
	}

	files, err := scripts("clickhouse")
	if err != nil {
		conn.Close()
		return nil, err
	}
	for _, f := range files {
		if err := checkSplittable(f.sql); err != nil {
			conn.Close()
			return nil, fmt.Errorf("summary schema %s: %w", f.name, err)
		}
		// The driver runs one statement per Exec.
		for _, stmt := range splitStatements(f.sql) {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("summary schema %s: %w", f.name, err)
			}
		}
	}
	return conn, nil
}

// splitStatements drops blank and "--" comment lines and splits the rest
// on ';'. Scripts must keep semicolons out of string literals and block
// comments; checkSplittable enforces the former.
func splitStatements(input string) []string {
	var kept []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// checkSplittable rejects a script with ';' inside a quoted literal.
// A doubled single quote is an escaped quote.
func checkSplittable(sql string) error {
	quoted := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case ';':
			if quoted {
				return fmt.Errorf("semicolon inside string literal at byte %d", i)
			}
		}
	}
	return nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("summary dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("summary dsn %q names no database", dsn)
	}
	return db, nil
}
