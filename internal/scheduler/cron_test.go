package scheduler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-agent/internal/pipeline"
)

type stubRunner struct {
	calls int
}

func (r *stubRunner) RunCycle(_ context.Context, _ string) (*pipeline.CycleStats, error) {
	r.calls++
	return &pipeline.CycleStats{}, nil
}

func TestNew(t *testing.T) {
	t.Run("builds a daily spec from the clock time", func(t *testing.T) {
		s, err := New("06:30", &stubRunner{}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "30 6 * * *", s.spec)
	})

	t.Run("midnight", func(t *testing.T) {
		s, err := New("00:00", &stubRunner{}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "0 0 * * *", s.spec)
	})

	t.Run("rejects malformed clock", func(t *testing.T) {
		_, err := New("25:99", &stubRunner{}, zerolog.Nop())
		require.Error(t, err)

		_, err = New("six am", &stubRunner{}, zerolog.Nop())
		require.Error(t, err)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New("06:00", &stubRunner{}, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	ctx := s.Stop()
	<-ctx.Done()
}
