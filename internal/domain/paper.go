package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle state of a paper in the processing pipeline.
type Status string

// Paper lifecycle states. A paper normally advances
// NEW -> SCORED -> SUMMARIZED -> PUSHED; FILTERED is a parallel terminal
// state for papers below the score threshold, and ERROR is a valid resting
// state that external tooling may assign but pipeline transitions never set.
const (
	StatusNew        Status = "NEW"
	StatusScored     Status = "SCORED"
	StatusFiltered   Status = "FILTERED"
	StatusSummarized Status = "SUMMARIZED"
	StatusPushed     Status = "PUSHED"
	StatusError      Status = "ERROR"
)

// IsValid returns true if s is one of the defined pipeline states.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusScored, StatusFiltered, StatusSummarized, StatusPushed, StatusError:
		return true
	}
	return false
}

// IsTerminal returns true for states the batch cycle never picks up again.
func (s Status) IsTerminal() bool {
	return s == StatusPushed || s == StatusFiltered || s == StatusError
}

// Paper represents an ingested research paper and its pipeline state.
//
// The identity is the arXiv accession string with any version suffix
// stripped, so the same logical paper is never stored twice as "id" and
// "id-v2". Title, abstract, authors, publication data and the PDF URL are
// immutable after ingest; the remaining fields are mutated only by the
// pipeline and the operator-override endpoints.
type Paper struct {
	ID              string
	Title           string
	Abstract        string
	Authors         string // JSON-encoded list; legacy rows may be malformed, see AuthorsList.
	PublishedAt     time.Time
	CategoryPrimary string
	AllCategories   string // JSON-encoded list.
	PDFURL          string

	FullText *string

	Affiliations    *string // JSON-encoded list, derived from full text.
	MainCompany     *string
	MainUniversity  *string
	MainAffiliation *string

	Score               *int // 0-100, nil until scored.
	UserScore           *int // Operator override; once set, suppresses automated scoring forever.
	ScoreReason         *string
	SummaryPersonalized *string

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthorsList decodes the stored author list.
//
// Rows written by current code are well-formed JSON arrays and round-trip
// exactly. Some legacy rows contain unescaped quotes (author names like
// `O"Regan`) that break strict decoding; for those the method falls back to
// splitting on the `", "` delimiter and stripping the surrounding brackets
// and quotes. The fallback is a permanent compatibility shim for data
// written by earlier versions: it must recover a non-empty list without
// raising.
func (p *Paper) AuthorsList() []string {
	return DecodeAuthors(p.Authors)
}

// DecodeAuthors parses a JSON-encoded author list with a repair path for
// malformed legacy rows. It never fails; unparseable input degrades to a
// best-effort delimiter split.
func DecodeAuthors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var authors []string
	if err := json.Unmarshal([]byte(raw), &authors); err == nil {
		return authors
	}

	// Repair path: strip brackets, split on the JSON element delimiter and
	// trim stray quotes. Empty fragments are dropped.
	trimmed := strings.Trim(raw, "[]")
	parts := strings.Split(trimmed, `", "`)
	repaired := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.Trim(part, `"`)
		if name != "" {
			repaired = append(repaired, name)
		}
	}
	return repaired
}

// EncodeAuthors serializes an author list to its stored JSON form.
func EncodeAuthors(authors []string) string {
	if authors == nil {
		authors = []string{}
	}
	data, err := json.Marshal(authors)
	if err != nil {
		// []string cannot fail to marshal; keep the row valid regardless.
		return "[]"
	}
	return string(data)
}

// HasSummary returns true when a personalized summary has been produced.
func (p *Paper) HasSummary() bool {
	return p.SummaryPersonalized != nil && *p.SummaryPersonalized != ""
}

// PublishedDay returns the publication date truncated to its UTC calendar
// day, the grouping key for digest notifications.
func (p *Paper) PublishedDay() string {
	return p.PublishedAt.UTC().Format("2006-01-02")
}
