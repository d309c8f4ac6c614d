package database

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("nil database", func(t *testing.T) {
		m, err := NewMigrator(nil, "migrations", logger)
		require.Error(t, err)
		assert.Nil(t, m)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("uninitialized pool", func(t *testing.T) {
		m, err := NewMigrator(&DB{}, "migrations", logger)
		require.Error(t, err)
		assert.Nil(t, m)
		assert.Contains(t, err.Error(), "pool not initialized")
	})
}
