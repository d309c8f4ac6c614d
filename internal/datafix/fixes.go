package datafix

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/paper-agent/internal/dedup"
	"github.com/helixir/paper-agent/internal/domain"
)

// All returns the ordered list of data fixes.
func All() []Fix {
	return []Fix{
		{
			Version: 1,
			Name:    "add user_score column",
			Apply:   addUserScoreColumn,
		},
		{
			Version: 2,
			Name:    "normalize author rows",
			Apply:   normalizeAuthorRows,
		},
	}
}

// addUserScoreColumn adds the manual score override column to databases
// created before it existed. Fresh schemas already have it, so the fix
// checks first and no-ops.
func addUserScoreColumn(ctx context.Context, tx pgx.Tx) error {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'papers' AND column_name = 'user_score'
		)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to inspect papers schema: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, `ALTER TABLE papers ADD COLUMN user_score INTEGER`); err != nil {
		return fmt.Errorf("failed to add user_score column: %w", err)
	}
	return nil
}

// normalizeAuthorRows re-encodes every stored author list as well-formed
// JSON with cleaned names. Older rows were written by an encoder that
// neither escaped quotes nor stripped affiliation prefixes.
func normalizeAuthorRows(ctx context.Context, tx pgx.Tx) error {
	rows, err := tx.Query(ctx, `SELECT id, authors FROM papers`)
	if err != nil {
		return fmt.Errorf("failed to read author rows: %w", err)
	}

	type update struct {
		id      string
		authors string
	}
	var updates []update

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan author row: %w", err)
		}

		cleaned := domain.EncodeAuthors(dedup.CleanAuthors(domain.DecodeAuthors(raw)))
		if cleaned != raw {
			updates = append(updates, update{id: id, authors: cleaned})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate author rows: %w", err)
	}

	for _, u := range updates {
		if _, err := tx.Exec(ctx,
			`UPDATE papers SET authors = $1, updated_at = now() WHERE id = $2`,
			u.authors, u.id); err != nil {
			return fmt.Errorf("failed to update authors for %s: %w", u.id, err)
		}
	}
	return nil
}
