// Package migrations holds the SQL schema and applies it in file-name order.
package migrations

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

//go:embed *.sql
var files embed.FS

// advisoryLockKey serializes migrators across processes.
const advisoryLockKey = 7462839

// ErrLocked is returned when another migrator holds the advisory lock.
var ErrLocked = errors.New("another migrator is currently running")

// Migration is one embedded SQL file.
type Migration struct {
	Version  string
	Filename string
	Checksum string
}

// Names returns the embedded migration file names in apply order.
func Names() ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Discover lists the embedded migrations with their versions and checksums.
// File names must look like NNN_description.sql and versions must be unique.
func Discover() ([]Migration, error) {
	names, err := Names()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(names))
	out := make([]Migration, 0, len(names))
	for _, name := range names {
		version, _, ok := strings.Cut(name, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("invalid migration filename %s, expected NNN_description.sql", name)
		}
		if seen[version] {
			return nil, fmt.Errorf("duplicate migration version %s", version)
		}
		seen[version] = true

		body, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		sum := sha256.Sum256(body)
		out = append(out, Migration{Version: version, Filename: name, Checksum: hex.EncodeToString(sum[:])})
	}
	return out, nil
}

// Apply runs every migration not yet recorded in schema_migrations, each in
// its own transaction, and returns the file names it applied. An applied
// migration whose file has since changed is an error.
func Apply(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger) ([]string, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockKey).Scan(&locked); err != nil {
		return nil, fmt.Errorf("failed to query advisory lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey)
	}()

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	migrations, err := Discover()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range migrations {
		entry := log.WithField("migration", m.Filename)

		var existing string
		err := conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.Version).Scan(&existing)
		switch {
		case err == nil && existing == m.Checksum:
			entry.Debug("already applied")
			continue
		case err == nil:
			return applied, fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", m.Filename, existing, m.Checksum)
		case !errors.Is(err, pgx.ErrNoRows):
			return applied, fmt.Errorf("failed to check migration %s: %w", m.Filename, err)
		}

		if err := applyOne(ctx, conn, m); err != nil {
			return applied, err
		}
		entry.Info("applied")
		applied = append(applied, m.Filename)
	}
	return applied, nil
}

func applyOne(ctx context.Context, conn *pgxpool.Conn, m Migration) error {
	body, err := files.ReadFile(m.Filename)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", m.Filename, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.Filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(body)); err != nil {
		return fmt.Errorf("migration %s failed: %w", m.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		m.Version, m.Filename, m.Checksum,
	); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Filename, err)
	}
	return nil
}
