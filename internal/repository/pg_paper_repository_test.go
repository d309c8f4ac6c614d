package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-agent/internal/domain"
)

var paperColumnNames = []string{
	"id", "title", "abstract", "authors", "published_at", "category_primary",
	"all_categories", "pdf_url", "full_text", "affiliations", "main_company",
	"main_university", "main_affiliation", "score", "user_score", "score_reason",
	"summary_personalized", "status", "created_at", "updated_at",
}

func paperRow(mock pgxmock.PgxPoolIface, p *domain.Paper) *pgxmock.Rows {
	return mock.NewRows(paperColumnNames).AddRow(
		p.ID, p.Title, p.Abstract, p.Authors, p.PublishedAt, p.CategoryPrimary,
		p.AllCategories, p.PDFURL, p.FullText, p.Affiliations, p.MainCompany,
		p.MainUniversity, p.MainAffiliation, p.Score, p.UserScore, p.ScoreReason,
		p.SummaryPersonalized, p.Status, p.CreatedAt, p.UpdatedAt,
	)
}

func testPaper(id string) *domain.Paper {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Paper{
		ID:              id,
		Title:           "Adaptive Retrieval for Long-Context Models",
		Abstract:        "We study retrieval strategies.",
		Authors:         `["Jane Doe", "Bob Lee"]`,
		PublishedAt:     now,
		CategoryPrimary: "cs.CL",
		AllCategories:   `["cs.CL", "cs.AI"]`,
		PDFURL:          "https://arxiv.org/pdf/" + id,
		Status:          domain.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPgPaperRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperRepository(mock)

	t.Run("found", func(t *testing.T) {
		want := testPaper("2403.00001")
		mock.ExpectQuery("SELECT").
			WithArgs("2403.00001").
			WillReturnRows(paperRow(mock, want))

		got, err := repo.GetByID(context.Background(), "2403.00001")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, domain.StatusNew, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT").
			WithArgs("missing").
			WillReturnRows(mock.NewRows(paperColumnNames))

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty ID rejected", func(t *testing.T) {
		_, err := repo.GetByID(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperRepository_InsertBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperRepository(mock)

	papers := []*domain.Paper{testPaper("2403.00001"), testPaper("2403.00002")}

	// pgxmock always compares argument counts, so each queued INSERT needs
	// placeholders for its ten bound arguments.
	insertArgs := make([]interface{}, 10)
	for i := range insertArgs {
		insertArgs[i] = pgxmock.AnyArg()
	}

	eb := mock.ExpectBatch()
	eb.ExpectExec("INSERT INTO papers").WithArgs(insertArgs...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Second paper already exists; ON CONFLICT swallows it.
	eb.ExpectExec("INSERT INTO papers").WithArgs(insertArgs...).WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.InsertBatch(context.Background(), papers)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperRepository_InsertBatch_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperRepository(mock)
	inserted, err := repo.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestPgPaperRepository_ExistingIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgPaperRepository(mock)

	mock.ExpectQuery("SELECT id FROM papers").
		WithArgs([]string{"a", "b", "c"}).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("b"))

	existing, err := repo.ExistingIDs(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b": true}, existing)

	empty, err := repo.ExistingIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperRepository_SaveScore(t *testing.T) {
	ctx := context.Background()

	t.Run("updates unguarded rows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewPgPaperRepository(mock)

		mock.ExpectExec("UPDATE papers").
			WithArgs(92, "novel method", domain.StatusScored, "2403.00001").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		applied, err := repo.SaveScore(ctx, "2403.00001", 92, "novel method", domain.StatusScored)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manual override suppresses the update", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewPgPaperRepository(mock)

		mock.ExpectExec("UPDATE papers").
			WithArgs(40, "weak", domain.StatusFiltered, "2403.00002").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("2403.00002").
			WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

		applied, err := repo.SaveScore(ctx, "2403.00002", 40, "weak", domain.StatusFiltered)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing paper", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewPgPaperRepository(mock)

		mock.ExpectExec("UPDATE papers").
			WithArgs(40, "weak", domain.StatusFiltered, "missing").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("missing").
			WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))

		_, err = repo.SaveScore(ctx, "missing", 40, "weak", domain.StatusFiltered)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("score range validated", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewPgPaperRepository(mock)

		_, err = repo.SaveScore(ctx, "2403.00001", 101, "", domain.StatusScored)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPgPaperRepository_SaveSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgPaperRepository(mock)

	summary := "## TL;DR\nStrong results."
	p := testPaper("2403.00001")
	p.SummaryPersonalized = &summary
	p.Status = domain.StatusSummarized

	mock.ExpectExec("UPDATE papers").
		WithArgs(p.FullText, p.Affiliations, p.MainCompany, p.MainUniversity,
			p.MainAffiliation, p.SummaryPersonalized, p.Status, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SaveSummary(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperRepository_MarkPushed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgPaperRepository(mock)

	mock.ExpectExec("UPDATE papers").
		WithArgs(domain.StatusPushed, []string{"a", "b"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	require.NoError(t, repo.MarkPushed(context.Background(), []string{"a", "b"}))
	require.NoError(t, repo.MarkPushed(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperRepository_SetUserScore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgPaperRepository(mock)

	mock.ExpectExec("UPDATE papers").
		WithArgs(95, domain.StatusScored, "2403.00001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetUserScore(context.Background(), "2403.00001", 95))

	mock.ExpectExec("UPDATE papers").
		WithArgs(95, domain.StatusScored, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.SetUserScore(context.Background(), "missing", 95)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgPaperRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgPaperRepository(mock)

	p := testPaper("2403.00001")

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(domain.StatusScored).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT").
		WithArgs(domain.StatusScored, 10).
		WillReturnRows(paperRow(mock, p))

	papers, total, err := repo.List(context.Background(), PaperFilter{
		Status: domain.StatusScored,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, papers, 1)
	assert.Equal(t, p.ID, papers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
