package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/paper-agent/internal/domain"
)

// Compile-time interface verification.
var _ PaperRepository = (*PgPaperRepository)(nil)

// defaultPageSize bounds List results when the filter carries no limit.
const defaultPageSize = 50

const paperColumns = `
	id, title, abstract, authors, published_at, category_primary,
	all_categories, pdf_url, full_text, affiliations, main_company,
	main_university, main_affiliation, score, user_score, score_reason,
	summary_personalized, status, created_at, updated_at`

// PgPaperRepository is a PostgreSQL implementation of PaperRepository.
type PgPaperRepository struct {
	db DBTX
}

// NewPgPaperRepository creates a new PostgreSQL paper repository.
func NewPgPaperRepository(db DBTX) *PgPaperRepository {
	return &PgPaperRepository{db: db}
}

// InsertBatch inserts papers in state NEW, skipping IDs that already exist.
func (r *PgPaperRepository) InsertBatch(ctx context.Context, papers []*domain.Paper) (int, error) {
	if len(papers) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO papers (
			id, title, abstract, authors, published_at, category_primary,
			all_categories, pdf_url, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (id) DO NOTHING`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, p := range papers {
		if p.ID == "" {
			return 0, domain.NewValidationError("id", "paper ID is required")
		}
		batch.Queue(query,
			p.ID,
			p.Title,
			p.Abstract,
			p.Authors,
			p.PublishedAt,
			p.CategoryPrimary,
			p.AllCategories,
			p.PDFURL,
			domain.StatusNew,
			now,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range papers {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert paper batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// GetByID retrieves a paper by its accession ID.
func (r *PgPaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "paper ID is required")
	}

	query := `SELECT` + paperColumns + ` FROM papers WHERE id = $1`

	paper, err := scanPaper(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", id)
		}
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}
	return paper, nil
}

// ExistingIDs reports which of the given IDs are already stored.
func (r *PgPaperRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM papers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing IDs: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan existing ID: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing IDs: %w", err)
	}
	return existing, nil
}

// ListByStatus retrieves papers in the given state, oldest first.
func (r *PgPaperRepository) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Paper, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown status")
	}

	query := `SELECT` + paperColumns + ` FROM papers WHERE status = $1 ORDER BY created_at ASC`
	args := []interface{}{status}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers by status: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// ListByPublishedDay retrieves papers published on the given UTC day.
func (r *PgPaperRepository) ListByPublishedDay(ctx context.Context, day string) ([]*domain.Paper, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, domain.NewValidationError("day", "expected YYYY-MM-DD")
	}

	query := `SELECT` + paperColumns + `
		FROM papers
		WHERE (published_at AT TIME ZONE 'UTC')::date = $1::date
		ORDER BY published_at DESC`

	rows, err := r.db.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers by day: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// List retrieves papers matching the filter along with the total count.
func (r *PgPaperRepository) List(ctx context.Context, filter PaperFilter) ([]*domain.Paper, int64, error) {
	where := ""
	args := []interface{}{}

	if filter.Status != "" {
		if !filter.Status.IsValid() {
			return nil, 0, domain.NewValidationError("status", "unknown status")
		}
		args = append(args, filter.Status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if filter.Day != "" {
		if _, err := time.Parse("2006-01-02", filter.Day); err != nil {
			return nil, 0, domain.NewValidationError("day", "expected YYYY-MM-DD")
		}
		args = append(args, filter.Day)
		clause := fmt.Sprintf("(published_at AT TIME ZONE 'UTC')::date = $%d::date", len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM papers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count papers: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	args = append(args, limit)
	query := `SELECT` + paperColumns + ` FROM papers` + where +
		fmt.Sprintf(` ORDER BY published_at DESC, id ASC LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()

	papers, err := scanPapers(rows)
	if err != nil {
		return nil, 0, err
	}
	return papers, total, nil
}

// SaveScore persists a scoring outcome unless a manual override exists.
func (r *PgPaperRepository) SaveScore(ctx context.Context, id string, score int, reason string, status domain.Status) (bool, error) {
	if id == "" {
		return false, domain.NewValidationError("id", "paper ID is required")
	}
	if score < 0 || score > 100 {
		return false, domain.NewValidationError("score", "score must be between 0 and 100")
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE papers
		SET score = $1, score_reason = $2, status = $3, updated_at = now()
		WHERE id = $4 AND user_score IS NULL`,
		score, reason, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to save score: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish a missing paper from a guarded one.
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check paper existence: %w", err)
	}
	if !exists {
		return false, domain.NewNotFoundError("paper", id)
	}
	return false, nil
}

// SaveSummary persists summary fields and the resulting state.
func (r *PgPaperRepository) SaveSummary(ctx context.Context, paper *domain.Paper) error {
	if paper == nil || paper.ID == "" {
		return domain.NewValidationError("id", "paper ID is required")
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE papers
		SET full_text = $1,
		    affiliations = $2,
		    main_company = $3,
		    main_university = $4,
		    main_affiliation = $5,
		    summary_personalized = $6,
		    status = $7,
		    updated_at = now()
		WHERE id = $8`,
		paper.FullText,
		paper.Affiliations,
		paper.MainCompany,
		paper.MainUniversity,
		paper.MainAffiliation,
		paper.SummaryPersonalized,
		paper.Status,
		paper.ID)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("paper", paper.ID)
	}
	return nil
}

// MarkPushed transitions the given papers to PUSHED.
func (r *PgPaperRepository) MarkPushed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `
		UPDATE papers
		SET status = $1, updated_at = now()
		WHERE id = ANY($2)`,
		domain.StatusPushed, ids)
	if err != nil {
		return fmt.Errorf("failed to mark papers pushed: %w", err)
	}
	return nil
}

// SetUserScore records a manual score override. The override also becomes
// the effective score, the paper moves to SCORED, and automated scoring
// skips it from then on.
func (r *PgPaperRepository) SetUserScore(ctx context.Context, id string, score int) error {
	if id == "" {
		return domain.NewValidationError("id", "paper ID is required")
	}
	if score < 0 || score > 100 {
		return domain.NewValidationError("score", "score must be between 0 and 100")
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE papers
		SET user_score = $1, score = $1, status = $2, updated_at = now()
		WHERE id = $3`,
		score, domain.StatusScored, id)
	if err != nil {
		return fmt.Errorf("failed to set user score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("paper", id)
	}
	return nil
}

// scanPaper scans a single paper row.
func scanPaper(row pgx.Row) (*domain.Paper, error) {
	var p domain.Paper
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Abstract,
		&p.Authors,
		&p.PublishedAt,
		&p.CategoryPrimary,
		&p.AllCategories,
		&p.PDFURL,
		&p.FullText,
		&p.Affiliations,
		&p.MainCompany,
		&p.MainUniversity,
		&p.MainAffiliation,
		&p.Score,
		&p.UserScore,
		&p.ScoreReason,
		&p.SummaryPersonalized,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPapers scans all rows of a paper query.
func scanPapers(rows pgx.Rows) ([]*domain.Paper, error) {
	var papers []*domain.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate papers: %w", err)
	}
	return papers, nil
}
