package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	valid := []Status{StatusNew, StatusScored, StatusFiltered, StatusSummarized, StatusPushed, StatusError}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, Status("").IsValid())
	assert.False(t, Status("DONE").IsValid())
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusPushed.IsTerminal())
	assert.True(t, StatusFiltered.IsTerminal())
	assert.True(t, StatusError.IsTerminal())

	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusScored.IsTerminal())
	assert.False(t, StatusSummarized.IsTerminal())
}

func TestDecodeAuthors(t *testing.T) {
	t.Run("round-trips well-formed JSON exactly", func(t *testing.T) {
		authors := []string{"Alice Liddell", "Bob O'Neil", "Chen Wei"}
		encoded := EncodeAuthors(authors)
		assert.Equal(t, authors, DecodeAuthors(encoded))
	})

	t.Run("recovers legacy malformed rows without raising", func(t *testing.T) {
		// Unescaped inner quote breaks strict JSON decoding.
		raw := `["Team Hunyuan3D", "Donal O"Regan", "Bowen Zhang"]`
		authors := DecodeAuthors(raw)
		require.NotEmpty(t, authors)
		assert.Contains(t, authors, "Team Hunyuan3D")
		assert.Contains(t, authors, "Bowen Zhang")
	})

	t.Run("empty input yields nil", func(t *testing.T) {
		assert.Nil(t, DecodeAuthors(""))
		assert.Nil(t, DecodeAuthors("   "))
	})

	t.Run("drops empty fragments from repaired rows", func(t *testing.T) {
		raw := `["", "Jane Smith"]`
		// Well-formed JSON keeps empty entries; only the repair path filters.
		assert.Equal(t, []string{"", "Jane Smith"}, DecodeAuthors(raw))

		malformed := `["", "Ja"ne Smith"]`
		for _, name := range DecodeAuthors(malformed) {
			assert.NotEmpty(t, name)
		}
	})
}

func TestEncodeAuthors_NilBecomesEmptyArray(t *testing.T) {
	assert.Equal(t, "[]", EncodeAuthors(nil))
}

func TestPaper_HasSummary(t *testing.T) {
	p := &Paper{}
	assert.False(t, p.HasSummary())

	empty := ""
	p.SummaryPersonalized = &empty
	assert.False(t, p.HasSummary())

	summary := "## TL;DR\nGreat paper."
	p.SummaryPersonalized = &summary
	assert.True(t, p.HasSummary())
}

func TestPaper_PublishedDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	p := &Paper{PublishedAt: time.Date(2024, 3, 2, 3, 15, 0, 0, loc)}
	// 03:15 UTC+9 is still March 1st in UTC.
	assert.Equal(t, "2024-03-01", p.PublishedDay())
}
