package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"INFO", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestNewLogger_ExtraWriterReceivesLines(t *testing.T) {
	var extra bytes.Buffer
	logger := NewLogger(DefaultLoggingConfig(), &extra)

	logger.Info().Str("paper_id", "2401.00001").Msg("scored")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(extra.Bytes(), &entry))
	assert.Equal(t, "scored", entry["message"])
	assert.Equal(t, "2401.00001", entry["paper_id"])
}

func TestWithCycleContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	logger := WithCycleContext(base, "cycle-7", "manual")
	logger.Info().Msg("started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cycle-7", entry["cycle_id"])
	assert.Equal(t, "manual", entry["trigger"])
}
