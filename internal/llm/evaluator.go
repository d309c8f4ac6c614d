// Package llm provides LLM-based paper evaluation for the paper agent.
//
// This package defines the abstractions and prompt engineering required to
// score papers against a standing interest profile, write personalized
// summaries, and extract author affiliations from paper text using large
// language models (OpenAI, Anthropic).
//
// Example usage:
//
//	evaluator, _ := llm.NewEvaluator(cfg)
//	result, err := evaluator.ScorePaper(ctx, paper, profile)
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/helixir/paper-agent/internal/domain"
)

// summaryTemperature is used for summary generation. Scoring runs at the
// configured (usually zero) temperature for stable numbers; summaries read
// better with a bit of variance.
const summaryTemperature = 0.7

// maxPromptTextLen caps how much extracted full text is sent to a provider.
const maxPromptTextLen = 40000

// ScoreResult contains the structured scoring outcome. The JSON encoding is
// what gets persisted as the paper's score justification, so the field tags
// are part of the stored format.
type ScoreResult struct {
	// Score is the overall interest score, 0-100.
	Score int `json:"score"`

	// Relevance, Novelty and Clarity are the 0-100 sub-scores behind the
	// overall number.
	Relevance int `json:"relevance"`
	Novelty   int `json:"novelty"`
	Clarity   int `json:"clarity"`

	// RiskFlags lists concerns the model raised (e.g. "benchmark-only").
	RiskFlags []string `json:"risk_flags,omitempty"`

	// Reason is the model's one-paragraph justification.
	Reason string `json:"reason"`

	// Model is the LLM model used.
	Model string `json:"model"`
}

// Serialized returns the whole result as JSON, the form in which the
// justification is stored alongside the score. Falls back to the bare
// reason text if encoding fails.
func (r *ScoreResult) Serialized() string {
	data, err := json.Marshal(r)
	if err != nil {
		return r.Reason
	}
	return string(data)
}

// AffiliationResult contains affiliations extracted from paper text.
type AffiliationResult struct {
	// Affiliations is the full list of distinct affiliations found.
	Affiliations []string

	// MainCompany is the most prominent industry lab, if any.
	MainCompany string

	// MainUniversity is the most prominent academic institution, if any.
	MainUniversity string

	// MainAffiliation is the single affiliation the work is attributed to.
	MainAffiliation string
}

// Evaluator defines the interface for LLM-based paper evaluation.
//
// Implementations should handle provider-specific API calls, response
// parsing, and error handling while conforming to this unified interface.
type Evaluator interface {
	// ScorePaper scores a paper's title and abstract against the interest
	// profile. The returned score is clamped to 0-100.
	ScorePaper(ctx context.Context, paper *domain.Paper, profile string) (*ScoreResult, error)

	// SummarizePaper writes a personalized Markdown summary. fullText is
	// the extracted PDF text and may be empty, in which case the summary
	// is built from the abstract alone.
	SummarizePaper(ctx context.Context, paper *domain.Paper, fullText string) (string, error)

	// ExtractAffiliations pulls author affiliations out of paper text.
	ExtractAffiliations(ctx context.Context, paper *domain.Paper, text string) (*AffiliationResult, error)

	// Provider returns the name of the LLM provider (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// completer is the minimal per-provider surface the shared evaluation
// logic needs: one chat completion with optional JSON output.
type completer interface {
	complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, jsonMode bool) (string, error)
	Provider() string
	Model() string
}

// scoreResponse is the expected JSON structure of a scoring response.
type scoreResponse struct {
	Score     int      `json:"score"`
	Relevance int      `json:"relevance"`
	Novelty   int      `json:"novelty"`
	Clarity   int      `json:"clarity"`
	RiskFlags []string `json:"risk_flags,omitempty"`
	Reason    string   `json:"reason"`
}

// affiliationResponse is the expected JSON structure of an affiliation
// extraction response.
type affiliationResponse struct {
	Affiliations    []string `json:"affiliations"`
	MainCompany     string   `json:"main_company,omitempty"`
	MainUniversity  string   `json:"main_university,omitempty"`
	MainAffiliation string   `json:"main_affiliation,omitempty"`
}

// scorePaperWith runs the scoring prompt against a provider and parses the
// structured response.
func scorePaperWith(ctx context.Context, c completer, temperature float64, paper *domain.Paper, profile string) (*ScoreResult, error) {
	systemPrompt, userPrompt := BuildScorePrompt(paper, profile)

	content, err := c.complete(ctx, systemPrompt, userPrompt, temperature, true)
	if err != nil {
		return nil, err
	}

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%s: failed to parse score response as JSON: %w", c.Provider(), err)
	}
	if parsed.Reason == "" {
		return nil, fmt.Errorf("%s: score response missing reason", c.Provider())
	}

	return &ScoreResult{
		Score:     clampScore(parsed.Score),
		Relevance: clampScore(parsed.Relevance),
		Novelty:   clampScore(parsed.Novelty),
		Clarity:   clampScore(parsed.Clarity),
		RiskFlags: parsed.RiskFlags,
		Reason:    parsed.Reason,
		Model:     c.Model(),
	}, nil
}

// summarizePaperWith runs the summary prompt against a provider.
func summarizePaperWith(ctx context.Context, c completer, paper *domain.Paper, fullText string) (string, error) {
	systemPrompt, userPrompt := BuildSummaryPrompt(paper, fullText)

	content, err := c.complete(ctx, systemPrompt, userPrompt, summaryTemperature, false)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return "", fmt.Errorf("%s: empty summary response", c.Provider())
	}
	return summary, nil
}

// extractAffiliationsWith runs the affiliation prompt against a provider
// and parses the structured response.
func extractAffiliationsWith(ctx context.Context, c completer, paper *domain.Paper, text string) (*AffiliationResult, error) {
	systemPrompt, userPrompt := BuildAffiliationPrompt(paper, text)

	content, err := c.complete(ctx, systemPrompt, userPrompt, 0, true)
	if err != nil {
		return nil, err
	}

	var parsed affiliationResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%s: failed to parse affiliation response as JSON: %w", c.Provider(), err)
	}

	return &AffiliationResult{
		Affiliations:    parsed.Affiliations,
		MainCompany:     parsed.MainCompany,
		MainUniversity:  parsed.MainUniversity,
		MainAffiliation: parsed.MainAffiliation,
	}, nil
}

// clampScore bounds a model-reported score to 0-100.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// BuildScorePrompt builds the system and user prompts for paper scoring.
func BuildScorePrompt(paper *domain.Paper, profile string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString("You are a research paper triage assistant. You judge how ")
	sb.WriteString("interesting a newly published paper is to one specific reader, ")
	sb.WriteString("based on their standing interest profile.\n\n")
	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"score": 0, "relevance": 0, "novelty": 0, "clarity": 0, "risk_flags": [], "reason": "One short paragraph"}`)
	sb.WriteString("\n\n")
	sb.WriteString("Scoring guidelines:\n")
	sb.WriteString("1. All scores are integers from 0 to 100.\n")
	sb.WriteString("2. \"score\" is the overall interest score; weigh relevance to the profile highest.\n")
	sb.WriteString("3. Reserve scores above 85 for papers the reader would genuinely want to read the same day.\n")
	sb.WriteString("4. Use \"risk_flags\" for concerns such as missing baselines or marketing-style claims.\n")
	sb.WriteString("5. Keep \"reason\" to one short paragraph.\n")
	systemPrompt = sb.String()

	var ub strings.Builder
	if profile != "" {
		ub.WriteString("Reader interest profile:\n---\n")
		ub.WriteString(profile)
		ub.WriteString("\n---\n\n")
	}
	ub.WriteString("Paper to score:\n")
	ub.WriteString(fmt.Sprintf("Title: %s\n", paper.Title))
	if authors := paper.AuthorsList(); len(authors) > 0 {
		ub.WriteString(fmt.Sprintf("Authors: %s\n", strings.Join(authors, ", ")))
	}
	if paper.CategoryPrimary != "" {
		ub.WriteString(fmt.Sprintf("Category: %s\n", paper.CategoryPrimary))
	}
	ub.WriteString("Abstract:\n---\n")
	ub.WriteString(paper.Abstract)
	ub.WriteString("\n---")
	userPrompt = ub.String()

	return systemPrompt, userPrompt
}

// BuildSummaryPrompt builds the system and user prompts for personalized
// summarization.
func BuildSummaryPrompt(paper *domain.Paper, fullText string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString("You are a research assistant writing a personalized paper ")
	sb.WriteString("briefing. Respond in Markdown with these sections:\n")
	sb.WriteString("## TL;DR\nTwo sentences at most.\n")
	sb.WriteString("## Key contributions\nThree to five bullets.\n")
	sb.WriteString("## Why it matters to you\nOne short paragraph.\n")
	sb.WriteString("## Caveats\nBullets, or the single word None.\n")
	systemPrompt = sb.String()

	var ub strings.Builder
	ub.WriteString(fmt.Sprintf("Title: %s\n", paper.Title))
	ub.WriteString("Abstract:\n---\n")
	ub.WriteString(paper.Abstract)
	ub.WriteString("\n---\n")
	if fullText != "" {
		ub.WriteString("\nFull text (extracted, may be noisy):\n---\n")
		ub.WriteString(truncateText(fullText, maxPromptTextLen))
		ub.WriteString("\n---")
	}
	userPrompt = ub.String()

	return systemPrompt, userPrompt
}

// BuildAffiliationPrompt builds the system and user prompts for affiliation
// extraction.
func BuildAffiliationPrompt(paper *domain.Paper, text string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString("You extract author affiliations from research paper text.\n\n")
	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"affiliations": [], "main_company": "", "main_university": "", "main_affiliation": ""}`)
	sb.WriteString("\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. List each distinct affiliation once.\n")
	sb.WriteString("2. \"main_affiliation\" is the single institution the work is primarily attributed to.\n")
	sb.WriteString("3. Use empty strings when a field cannot be determined.\n")
	systemPrompt = sb.String()

	var ub strings.Builder
	ub.WriteString(fmt.Sprintf("Title: %s\n", paper.Title))
	ub.WriteString("Paper text (first pages):\n---\n")
	ub.WriteString(truncateText(text, 8000))
	ub.WriteString("\n---")
	userPrompt = ub.String()

	return systemPrompt, userPrompt
}

// truncateText cuts s to at most max bytes without splitting a UTF-8 rune.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r == utf8.RuneError && size <= 1 {
			cut = cut[:len(cut)-1]
			continue
		}
		break
	}
	return cut
}
