// Package datafix applies versioned in-code data fixes at startup.
//
// Schema migrations proper are SQL files applied by the database package.
// Data fixes cover what SQL alone cannot: repairs that need application
// logic, such as re-encoding malformed author rows. Applied versions are
// tracked in the single-row schema_version table so each fix runs exactly
// once per database.
package datafix

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-agent/internal/database"
)

// advisoryLockKey serializes concurrent runners across processes.
const advisoryLockKey = 0x70617065 // "pape"

// DB is the database surface the runner needs. Both *pgxpool.Pool and
// pgxmock pools satisfy it.
type DB interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Fix is one versioned data fix. Apply runs inside a transaction that is
// committed together with the version bump.
type Fix struct {
	// Version orders fixes and must be unique and positive.
	Version int
	// Name identifies the fix in logs.
	Name string
	// Apply performs the fix.
	Apply func(ctx context.Context, tx pgx.Tx) error
}

// Runner applies pending fixes in version order.
type Runner struct {
	db     DB
	fixes  []Fix
	logger zerolog.Logger
}

// NewRunner creates a runner over the given fixes. The fix list is copied
// and sorted by version.
func NewRunner(db DB, fixes []Fix, logger zerolog.Logger) *Runner {
	sorted := make([]Fix, len(fixes))
	copy(sorted, fixes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Runner{
		db:     db,
		fixes:  sorted,
		logger: logger,
	}
}

// Run applies every fix newer than the stored version, bumping the version
// after each one. It stops at the first failure and returns the error;
// already-applied fixes stay applied. Callers are expected to log the error
// and continue startup rather than crash.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to prepare schema_version table: %w", err)
	}

	current, err := r.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	pending := 0
	for _, fix := range r.fixes {
		if fix.Version <= current {
			continue
		}
		pending++

		if err := r.applyOne(ctx, fix); err != nil {
			r.logger.Error().
				Err(err).
				Int("version", fix.Version).
				Str("fix", fix.Name).
				Msg("data fix failed, stopping")
			return fmt.Errorf("data fix %d (%s) failed: %w", fix.Version, fix.Name, err)
		}

		r.logger.Info().
			Int("version", fix.Version).
			Str("fix", fix.Name).
			Msg("data fix applied")
	}

	if pending == 0 {
		r.logger.Info().Int("version", current).Msg("no data fixes to apply")
	}
	return nil
}

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO schema_version (id, version) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`)
	return err
}

func (r *Runner) currentVersion(ctx context.Context) (int, error) {
	var version int
	err := r.db.QueryRow(ctx, `SELECT version FROM schema_version WHERE id = 1`).Scan(&version)
	return version, err
}

// applyOne runs a single fix and its version bump in one transaction.
func (r *Runner) applyOne(ctx context.Context, fix Fix) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := database.AcquireAdvisoryLockTx(ctx, tx, advisoryLockKey); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	// Re-check the version under the lock; another process may have won.
	var version int
	if err := tx.QueryRow(ctx, `SELECT version FROM schema_version WHERE id = 1`).Scan(&version); err != nil {
		return fmt.Errorf("failed to re-read schema version: %w", err)
	}
	if version >= fix.Version {
		return tx.Commit(ctx)
	}

	if err := fix.Apply(ctx, tx); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE schema_version SET version = $1, updated_at = now() WHERE id = 1`,
		fix.Version); err != nil {
		return fmt.Errorf("failed to bump schema version: %w", err)
	}

	return tx.Commit(ctx)
}
