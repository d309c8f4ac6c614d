package domain

import "time"

// AuthorImportance marks an author name as important. Papers with at least
// one important author get a score floor of ImportanceFloor during scoring.
// The registry is read-only from the pipeline's perspective.
type AuthorImportance struct {
	Name      string
	Important bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImportanceFloor is the minimum persisted score for papers written by an
// important author. The boost raises lower evaluator scores to exactly this
// value and never lowers a higher one.
const ImportanceFloor = 90
