package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty string", input: "", want: ""},
		{name: "plain text unchanged", input: "CRISPR advances in 2024", want: "CRISPR advances in 2024"},
		{name: "null bytes removed", input: "abc\x00def\x00", want: "abcdef"},
		{name: "lone surrogate encoding dropped", input: "ok\xed\xa0\x80tail", want: "oktail"},
		{name: "truncated utf8 sequence dropped", input: "caf\xc3", want: "caf"},
		{name: "unicode preserved", input: "Schrödinger 量子", want: "Schrödinger 量子"},
		{name: "newlines and tabs preserved", input: "line1\n\tline2", want: "line1\n\tline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.input)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"null\x00byte",
		"surrogate\xed\xbf\xbf",
		strings.Repeat("\x00", 10),
		"mixed\x00\xed\xa0\x80ok",
	}

	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		assert.Equal(t, once, twice, "sanitizing twice must equal sanitizing once for %q", in)
	}
}

func TestText_TotalOverRandomBytes(t *testing.T) {
	// Every possible single byte must sanitize without panicking and yield
	// valid UTF-8.
	for b := 0; b < 256; b++ {
		got := Text(string([]byte{byte(b)}))
		assert.True(t, utf8.ValidString(got))
	}
}

func TestTextPtr(t *testing.T) {
	assert.Nil(t, TextPtr(nil))

	dirty := "a\x00b"
	got := TextPtr(&dirty)
	assert.NotNil(t, got)
	assert.Equal(t, "ab", *got)
}
