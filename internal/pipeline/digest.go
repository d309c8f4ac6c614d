package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/helixir/paper-agent/internal/domain"
)

const (
	// batchPreviewLen bounds the summary preview in batch digests.
	batchPreviewLen = 150
	// singlePreviewLen bounds the summary preview in single-paper messages.
	singlePreviewLen = 200
)

// RenderDigest renders one message per publication day for the given papers.
// Days are ordered newest first; papers within a day by score descending.
func RenderDigest(papers []*domain.Paper) []string {
	if len(papers) == 0 {
		return nil
	}

	byDay := make(map[string][]*domain.Paper)
	for _, p := range papers {
		day := p.PublishedDay()
		byDay[day] = append(byDay[day], p)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	messages := make([]string, 0, len(days))
	for _, day := range days {
		group := byDay[day]
		sort.SliceStable(group, func(i, j int) bool {
			return effectiveScore(group[i]) > effectiveScore(group[j])
		})

		var b strings.Builder
		fmt.Fprintf(&b, "📅 %s (%d papers)\n", day, len(group))
		for rank, p := range group {
			b.WriteString("\n")
			b.WriteString(renderEntry(rank+1, p, batchPreviewLen))
		}
		messages = append(messages, strings.TrimRight(b.String(), "\n"))
	}
	return messages
}

// RenderSingle renders the message for a single-paper notification.
func RenderSingle(p *domain.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 New paper (%s)\n\n", p.PublishedDay())
	b.WriteString(renderEntry(1, p, singlePreviewLen))
	return strings.TrimRight(b.String(), "\n")
}

func renderEntry(rank int, p *domain.Paper, previewLen int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d. %s (score %d", rank, p.Title, effectiveScore(p))
	if p.MainAffiliation != nil && *p.MainAffiliation != "" {
		fmt.Fprintf(&b, ", %s", *p.MainAffiliation)
	}
	b.WriteString(")\n")

	if p.PDFURL != "" {
		fmt.Fprintf(&b, "   %s\n", p.PDFURL)
	}
	if preview := summaryPreview(p, previewLen); preview != "" {
		fmt.Fprintf(&b, "   %s\n", preview)
	}
	return b.String()
}

// effectiveScore prefers the operator override over the automated score.
func effectiveScore(p *domain.Paper) int {
	if p.UserScore != nil {
		return *p.UserScore
	}
	if p.Score != nil {
		return *p.Score
	}
	return 0
}

// summaryPreview flattens the personalized summary to a single line of at
// most maxRunes runes.
func summaryPreview(p *domain.Paper, maxRunes int) string {
	if p.SummaryPersonalized == nil {
		return ""
	}
	text := *p.SummaryPersonalized
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
