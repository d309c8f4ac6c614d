package repository

import (
	"context"

	"github.com/helixir/paper-agent/internal/domain"
)

// PaperFilter narrows List results. Zero values mean "no constraint".
type PaperFilter struct {
	// Status restricts results to one pipeline state.
	Status domain.Status
	// Day restricts results to papers published on a UTC calendar day
	// ("2006-01-02").
	Day string
	// Limit caps the number of rows returned; 0 means the default page size.
	Limit int
	// Offset skips rows for pagination.
	Offset int
}

// PaperRepository handles paper persistence and pipeline state transitions.
type PaperRepository interface {
	// InsertBatch inserts papers in state NEW. IDs that already exist are
	// left untouched. Returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, papers []*domain.Paper) (int, error)

	// GetByID retrieves a paper by its accession ID.
	// Returns domain.ErrNotFound if no matching paper exists.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// ExistingIDs reports which of the given IDs are already stored.
	// Returns nil, nil for an empty input.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)

	// ListByStatus retrieves papers in the given state, oldest first.
	// A limit of 0 means no limit.
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Paper, error)

	// ListByPublishedDay retrieves papers published on the given UTC
	// calendar day ("2006-01-02"), regardless of state.
	ListByPublishedDay(ctx context.Context, day string) ([]*domain.Paper, error)

	// List retrieves papers matching the filter, newest publication first,
	// along with the total count for pagination.
	List(ctx context.Context, filter PaperFilter) ([]*domain.Paper, int64, error)

	// SaveScore persists a scoring outcome and the resulting state. The
	// update is guarded: rows with a manual score override are never
	// touched. Returns true when the row was updated, false when the
	// guard suppressed it.
	// Returns domain.ErrNotFound if the paper does not exist.
	SaveScore(ctx context.Context, id string, score int, reason string, status domain.Status) (bool, error)

	// SaveSummary persists summary fields (full text, affiliations,
	// summary) and the resulting state.
	// Returns domain.ErrNotFound if the paper does not exist.
	SaveSummary(ctx context.Context, paper *domain.Paper) error

	// MarkPushed transitions the given papers to PUSHED.
	MarkPushed(ctx context.Context, ids []string) error

	// SetUserScore records a manual score override. Once set the automated
	// scorer never touches the paper's score again.
	// Returns domain.ErrNotFound if the paper does not exist.
	SetUserScore(ctx context.Context, id string, score int) error
}
