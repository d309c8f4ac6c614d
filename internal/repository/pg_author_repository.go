package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/helixir/paper-agent/internal/domain"
)

// Compile-time interface verification.
var _ AuthorRepository = (*PgAuthorRepository)(nil)

// PgAuthorRepository is a PostgreSQL implementation of AuthorRepository.
type PgAuthorRepository struct {
	db DBTX
}

// NewPgAuthorRepository creates a new PostgreSQL author repository.
func NewPgAuthorRepository(db DBTX) *PgAuthorRepository {
	return &PgAuthorRepository{db: db}
}

// ImportantNames returns the subset of names marked important.
func (r *PgAuthorRepository) ImportantNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT name FROM author_importance
		WHERE important AND name = ANY($1)`,
		names)
	if err != nil {
		return nil, fmt.Errorf("failed to query important authors: %w", err)
	}
	defer rows.Close()

	var important []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan author name: %w", err)
		}
		important = append(important, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate important authors: %w", err)
	}
	return important, nil
}

// List retrieves all registry entries, name ascending.
func (r *PgAuthorRepository) List(ctx context.Context) ([]*domain.AuthorImportance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, important, created_at, updated_at
		FROM author_importance
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuthorImportance
	for rows.Next() {
		var e domain.AuthorImportance
		if err := rows.Scan(&e.Name, &e.Important, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan author entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate author entries: %w", err)
	}
	return entries, nil
}

// Set creates or updates a registry entry.
func (r *PgAuthorRepository) Set(ctx context.Context, name string, important bool) (*domain.AuthorImportance, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "author name is required")
	}

	var e domain.AuthorImportance
	err := r.db.QueryRow(ctx, `
		INSERT INTO author_importance (name, important, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE SET
			important = EXCLUDED.important,
			updated_at = now()
		RETURNING name, important, created_at, updated_at`,
		name, important).Scan(&e.Name, &e.Important, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert author entry: %w", err)
	}
	return &e, nil
}

// Delete removes a registry entry.
func (r *PgAuthorRepository) Delete(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError("name", "author name is required")
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM author_importance WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete author entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("author", name)
	}
	return nil
}
