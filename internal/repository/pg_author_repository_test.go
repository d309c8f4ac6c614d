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

func TestPgAuthorRepository_ImportantNames(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgAuthorRepository(mock)

	mock.ExpectQuery("SELECT name FROM author_importance").
		WithArgs([]string{"Jane Doe", "Bob Lee"}).
		WillReturnRows(mock.NewRows([]string{"name"}).AddRow("Jane Doe"))

	names, err := repo.ImportantNames(context.Background(), []string{"Jane Doe", "Bob Lee"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe"}, names)

	empty, err := repo.ImportantNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAuthorRepository_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgAuthorRepository(mock)

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO author_importance").
		WithArgs("Jane Doe", true).
		WillReturnRows(mock.NewRows([]string{"name", "important", "created_at", "updated_at"}).
			AddRow("Jane Doe", true, now, now))

	entry, err := repo.Set(context.Background(), "  Jane Doe  ", true)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", entry.Name)
	assert.True(t, entry.Important)

	_, err = repo.Set(context.Background(), "   ", true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAuthorRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgAuthorRepository(mock)

	mock.ExpectExec("DELETE FROM author_importance").
		WithArgs("Jane Doe").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), "Jane Doe"))

	mock.ExpectExec("DELETE FROM author_importance").
		WithArgs("Nobody").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "Nobody"), domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgAuthorRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewPgAuthorRepository(mock)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT name, important, created_at, updated_at").
		WillReturnRows(mock.NewRows([]string{"name", "important", "created_at", "updated_at"}).
			AddRow("Bob Lee", false, now, now).
			AddRow("Jane Doe", true, now, now))

	entries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bob Lee", entries[0].Name)
	assert.True(t, entries[1].Important)
	assert.NoError(t, mock.ExpectationsWereMet())
}
