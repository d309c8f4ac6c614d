// Package dedup filters feed entries that are already known and normalizes
// author names so the same author always compares equal.
package dedup

import (
	"context"
	"strings"

	"github.com/helixir/paper-agent/internal/domain"
)

// ExistingChecker reports which of the given paper IDs already exist.
type ExistingChecker interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// FilterNew returns the papers whose IDs are not yet stored, preserving the
// input order. A batch with duplicate IDs keeps only the first occurrence.
func FilterNew(ctx context.Context, checker ExistingChecker, papers []*domain.Paper) ([]*domain.Paper, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(papers))
	for _, p := range papers {
		ids = append(ids, p.ID)
	}

	existing, err := checker.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(papers))
	fresh := make([]*domain.Paper, 0, len(papers))
	for _, p := range papers {
		if existing[p.ID] || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		fresh = append(fresh, p)
	}
	return fresh, nil
}

// CleanAuthorName normalizes a single author name: affiliation prefixes
// separated by a colon are dropped, whitespace is trimmed. Returns "" for
// names that are empty after cleaning.
func CleanAuthorName(name string) string {
	// Feeds occasionally prepend the affiliation ("MIT: Jane Doe").
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}

// CleanAuthors normalizes a list of author names, dropping entries that are
// empty after cleaning.
func CleanAuthors(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if clean := CleanAuthorName(n); clean != "" {
			out = append(out, clean)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
