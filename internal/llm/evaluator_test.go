package llm

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-agent/internal/domain"
)

func TestScoreResult_Serialized(t *testing.T) {
	result := &ScoreResult{
		Score:     92,
		Relevance: 95,
		Novelty:   81,
		Clarity:   74,
		RiskFlags: []string{"benchmark-only"},
		Reason:    "strong match",
		Model:     "gpt-4o-mini",
	}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Serialized()), &decoded))
	assert.Equal(t, float64(92), decoded["score"])
	assert.Equal(t, float64(95), decoded["relevance"])
	assert.Equal(t, float64(81), decoded["novelty"])
	assert.Equal(t, float64(74), decoded["clarity"])
	assert.Equal(t, []any{"benchmark-only"}, decoded["risk_flags"])
	assert.Equal(t, "strong match", decoded["reason"])
	assert.Equal(t, "gpt-4o-mini", decoded["model"])

	// No flags raised: the field stays off the wire.
	assert.NotContains(t, (&ScoreResult{Reason: "ok"}).Serialized(), "risk_flags")
}

func TestBuildScorePrompt(t *testing.T) {
	paper := &domain.Paper{
		Title:           "Sparse Attention at Scale",
		Abstract:        "We make attention sparse.",
		Authors:         `["Jane Doe", "Bob Lee"]`,
		CategoryPrimary: "cs.LG",
	}

	system, user := BuildScorePrompt(paper, "efficient transformers")

	assert.Contains(t, system, `"score"`)
	assert.Contains(t, system, "0 to 100")
	assert.Contains(t, user, "efficient transformers")
	assert.Contains(t, user, "Sparse Attention at Scale")
	assert.Contains(t, user, "Jane Doe, Bob Lee")
	assert.Contains(t, user, "cs.LG")
}

func TestBuildSummaryPrompt(t *testing.T) {
	paper := &domain.Paper{Title: "T", Abstract: "A"}

	_, withoutText := BuildSummaryPrompt(paper, "")
	assert.NotContains(t, withoutText, "Full text")

	_, withText := BuildSummaryPrompt(paper, "body of the paper")
	assert.Contains(t, withText, "body of the paper")
}

func TestBuildSummaryPrompt_TruncatesLongText(t *testing.T) {
	paper := &domain.Paper{Title: "T", Abstract: "A"}
	long := strings.Repeat("x", maxPromptTextLen+1000)

	_, user := BuildSummaryPrompt(paper, long)
	assert.Less(t, len(user), maxPromptTextLen+500)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 100))
	assert.Equal(t, "abc", truncateText("abcdef", 3))

	// Never split a multi-byte rune.
	s := "aé" // 'é' is two bytes; cutting at 2 would split it
	got := truncateText(s, 2)
	assert.Equal(t, "a", got)
	assert.True(t, utf8.ValidString(got))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-10))
	assert.Equal(t, 0, clampScore(0))
	assert.Equal(t, 85, clampScore(85))
	assert.Equal(t, 100, clampScore(100))
	assert.Equal(t, 100, clampScore(250))
}
