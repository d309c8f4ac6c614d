package repository

import (
	"context"

	"github.com/helixir/paper-agent/internal/domain"
)

// AuthorRepository manages the important-author registry.
type AuthorRepository interface {
	// ImportantNames returns the subset of the given names that are marked
	// important. Returns nil, nil for an empty input.
	ImportantNames(ctx context.Context, names []string) ([]string, error)

	// List retrieves all registry entries, name ascending.
	List(ctx context.Context) ([]*domain.AuthorImportance, error)

	// Set creates or updates a registry entry.
	// Returns domain.ErrInvalidInput if the name is empty.
	Set(ctx context.Context, name string, important bool) (*domain.AuthorImportance, error)

	// Delete removes a registry entry.
	// Returns domain.ErrNotFound if the entry does not exist.
	Delete(ctx context.Context, name string) error
}
