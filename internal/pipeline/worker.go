// Package pipeline drives papers through the lifecycle state machine:
// fetch, dedupe, score, summarize, notify. Stages tolerate external
// failure per paper; a failed paper simply stays in its prior state and
// is retried on the next cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/paper-agent/internal/dedup"
	"github.com/helixir/paper-agent/internal/domain"
	"github.com/helixir/paper-agent/internal/llm"
	"github.com/helixir/paper-agent/internal/notify"
	"github.com/helixir/paper-agent/internal/observability"
	"github.com/helixir/paper-agent/internal/repository"
	"github.com/helixir/paper-agent/internal/sanitize"
)

// DefaultScoreThreshold is the minimum score required to pass filtering.
const DefaultScoreThreshold = 85

const (
	defaultConcurrency         = 5
	defaultRescoreCooldown     = 60 * time.Second
	defaultResummarizeCooldown = 30 * time.Second
)

// Fetcher retrieves candidate papers from the feed source.
type Fetcher interface {
	Latest(ctx context.Context) ([]*domain.Paper, error)
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
}

// TextExtractor extracts a paper's full text. ok is false when no usable
// text could be obtained; that is a degraded path, not an error.
type TextExtractor interface {
	ExtractText(ctx context.Context, url string) (text string, ok bool)
}

// Config holds pipeline tuning parameters.
type Config struct {
	// Profile is the standing interest profile papers are scored against.
	Profile string
	// ScoreThreshold is the minimum score to pass filtering.
	ScoreThreshold int
	// Concurrency bounds simultaneous per-paper operations in bulk stages.
	Concurrency int
	// RescoreCooldown is the per-date forced re-score window.
	RescoreCooldown time.Duration
	// ResummarizeCooldown is the per-paper re-summarize window.
	ResummarizeCooldown time.Duration
}

func (c *Config) applyDefaults() {
	if c.ScoreThreshold == 0 {
		c.ScoreThreshold = DefaultScoreThreshold
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.RescoreCooldown == 0 {
		c.RescoreCooldown = defaultRescoreCooldown
	}
	if c.ResummarizeCooldown == 0 {
		c.ResummarizeCooldown = defaultResummarizeCooldown
	}
}

// Deps wires the worker's collaborators.
type Deps struct {
	Papers    repository.PaperRepository
	Authors   repository.AuthorRepository
	Fetcher   Fetcher
	Evaluator llm.Evaluator
	Extractor TextExtractor
	// Notifier may be nil; papers then stay SUMMARIZED and are pushed once
	// a channel is configured.
	Notifier notify.Notifier
	Metrics  *observability.Metrics
}

// Worker is the pipeline orchestrator.
type Worker struct {
	cfg       Config
	papers    repository.PaperRepository
	authors   repository.AuthorRepository
	fetcher   Fetcher
	evaluator llm.Evaluator
	extractor TextExtractor
	notifier  notify.Notifier
	metrics   *observability.Metrics
	cooldowns *CooldownLedger
	logger    zerolog.Logger
}

// NewWorker creates a pipeline worker.
func NewWorker(cfg Config, deps Deps, logger zerolog.Logger) *Worker {
	cfg.applyDefaults()
	return &Worker{
		cfg:       cfg,
		papers:    deps.Papers,
		authors:   deps.Authors,
		fetcher:   deps.Fetcher,
		evaluator: deps.Evaluator,
		extractor: deps.Extractor,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		cooldowns: NewCooldownLedger(),
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// CycleStats summarizes one full pipeline cycle.
type CycleStats struct {
	Fetched    int `json:"fetched"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Scored     int `json:"scored"`
	Filtered   int `json:"filtered"`
	Summarized int `json:"summarized"`
	Pushed     int `json:"pushed"`
}

// RunCycle runs one full cycle: fetch, dedupe, score, summarize, notify.
// Per-paper failures are logged and skipped; only stage-level failures
// (fetch or storage) abort the cycle.
func (w *Worker) RunCycle(ctx context.Context, trigger string) (*CycleStats, error) {
	cycleID := uuid.NewString()
	// Collaborators read the cycle ID back out of the context; the Kafka
	// notifier stamps it into the digest envelope.
	ctx = observability.WithCycleID(ctx, cycleID)
	logger := observability.WithCycleContext(w.logger, cycleID, trigger)
	if reqID := observability.RequestIDFromContext(ctx); reqID != "" {
		logger = logger.With().Str("request_id", reqID).Logger()
	}
	w.metrics.RecordCycleStarted(trigger)
	start := time.Now()

	logger.Info().Msg("cycle started")
	stats, err := w.runCycle(ctx, logger)
	if err != nil {
		w.metrics.RecordCycleFailed(time.Since(start).Seconds())
		logger.Error().Err(err).Msg("cycle failed")
		return stats, err
	}

	w.metrics.RecordCycleCompleted(time.Since(start).Seconds())
	logger.Info().
		Int("fetched", stats.Fetched).
		Int("inserted", stats.Inserted).
		Int("scored", stats.Scored).
		Int("filtered", stats.Filtered).
		Int("summarized", stats.Summarized).
		Int("pushed", stats.Pushed).
		Dur("elapsed", time.Since(start)).
		Msg("cycle completed")
	return stats, nil
}

func (w *Worker) runCycle(ctx context.Context, logger zerolog.Logger) (*CycleStats, error) {
	stats := &CycleStats{}

	fetched, err := w.fetcher.Latest(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch feed: %w", err)
	}
	stats.Fetched = len(fetched)

	fresh, err := dedup.FilterNew(ctx, w.papers, fetched)
	if err != nil {
		return stats, fmt.Errorf("deduplicate: %w", err)
	}
	stats.Duplicates = len(fetched) - len(fresh)

	if len(fresh) > 0 {
		inserted, err := w.papers.InsertBatch(ctx, fresh)
		if err != nil {
			return stats, fmt.Errorf("insert papers: %w", err)
		}
		stats.Inserted = inserted
	}
	w.metrics.RecordSync(stats.Fetched, stats.Inserted, stats.Duplicates)
	logger.Info().
		Int("fetched", stats.Fetched).
		Int("new", stats.Inserted).
		Int("duplicate", stats.Duplicates).
		Msg("feed synced")

	if err := w.scoreStage(ctx, logger, stats); err != nil {
		return stats, err
	}
	if err := w.summarizeStage(ctx, logger, stats); err != nil {
		return stats, err
	}
	if err := w.notifyStage(ctx, logger, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// scoreStage scores every NEW paper under the bulk concurrency gate.
func (w *Worker) scoreStage(ctx context.Context, logger zerolog.Logger, stats *CycleStats) error {
	logger = observability.WithStageContext(logger, "score")

	papers, err := w.papers.ListByStatus(ctx, domain.StatusNew, 0)
	if err != nil {
		return fmt.Errorf("list new papers: %w", err)
	}
	if len(papers) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	results := make([]domain.Status, len(papers))
	for i, p := range papers {
		g.Go(func() error {
			status := w.scoreOne(gctx, logger, p.ID)
			results[i] = status
			return nil
		})
	}
	// Workers never return errors; one paper's failure must not abort
	// its siblings.
	_ = g.Wait()

	for _, status := range results {
		switch status {
		case domain.StatusScored:
			stats.Scored++
		case domain.StatusFiltered:
			stats.Filtered++
		}
	}
	return ctx.Err()
}

// scoreOne scores a single paper and returns the resulting status, or ""
// when no state change was made.
func (w *Worker) scoreOne(ctx context.Context, logger zerolog.Logger, id string) domain.Status {
	logger = observability.WithPaperContext(logger, id)

	// Always re-read; the row may have changed since listing.
	paper, err := w.papers.GetByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msg("load paper for scoring failed")
		return ""
	}
	if paper.UserScore != nil {
		logger.Info().Int("user_score", *paper.UserScore).Msg("manual score set, skipping automated scoring")
		return ""
	}

	result, err := w.evaluator.ScorePaper(ctx, paper, w.cfg.Profile)
	if err != nil {
		w.metrics.RecordScored("error")
		logger.Warn().Err(err).Msg("evaluator scoring failed, paper left for next cycle")
		return ""
	}

	score := result.Score
	boosted, err := w.applyImportanceBoost(ctx, paper, &score)
	if err != nil {
		logger.Warn().Err(err).Msg("importance lookup failed, continuing without boost")
	}
	if boosted {
		logger.Info().Int("score", score).Msg("importance boost applied")
	}

	status := domain.StatusFiltered
	if score >= w.cfg.ScoreThreshold {
		status = domain.StatusScored
	}

	// The full structured result is stored, not just the reason paragraph;
	// sub-scores and risk flags survive for later inspection.
	reason := sanitize.Text(result.Serialized())
	applied, err := w.papers.SaveScore(ctx, id, score, reason, status)
	if err != nil {
		logger.Error().Err(err).Msg("persist score failed")
		return ""
	}
	if !applied {
		logger.Info().Msg("manual score appeared during scoring, result discarded")
		return ""
	}

	outcome := "filtered"
	if status == domain.StatusScored {
		outcome = "scored"
	}
	w.metrics.RecordScored(outcome)
	logger.Info().Int("score", score).Str("status", string(status)).Msg("paper scored")
	return status
}

// applyImportanceBoost raises *score to the importance floor when any of the
// paper's authors is flagged important. Never lowers a higher score.
func (w *Worker) applyImportanceBoost(ctx context.Context, paper *domain.Paper, score *int) (bool, error) {
	if *score >= domain.ImportanceFloor {
		return false, nil
	}
	names := paper.AuthorsList()
	if len(names) == 0 {
		return false, nil
	}

	important, err := w.authors.ImportantNames(ctx, names)
	if err != nil {
		return false, err
	}
	if len(important) == 0 {
		return false, nil
	}

	*score = domain.ImportanceFloor
	w.metrics.RecordImportanceBoost()
	return true, nil
}

// summarizeStage summarizes every SCORED paper under the bulk gate.
func (w *Worker) summarizeStage(ctx context.Context, logger zerolog.Logger, stats *CycleStats) error {
	logger = observability.WithStageContext(logger, "summarize")

	papers, err := w.papers.ListByStatus(ctx, domain.StatusScored, 0)
	if err != nil {
		return fmt.Errorf("list scored papers: %w", err)
	}
	if len(papers) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	done := make([]bool, len(papers))
	for i, p := range papers {
		g.Go(func() error {
			done[i] = w.summarizeOne(gctx, logger, p.ID)
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range done {
		if ok {
			stats.Summarized++
		}
	}
	return ctx.Err()
}

// summarizeOne enriches and summarizes a single paper. Full-text extraction
// and affiliation extraction are best-effort; only a produced summary
// advances the paper to SUMMARIZED. Whatever succeeded is persisted.
func (w *Worker) summarizeOne(ctx context.Context, logger zerolog.Logger, id string) bool {
	logger = observability.WithPaperContext(logger, id)

	paper, err := w.papers.GetByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msg("load paper for summarization failed")
		return false
	}

	fullText, hasText := w.extractor.ExtractText(ctx, paper.PDFURL)
	if hasText {
		fullText = sanitize.Text(fullText)
		paper.FullText = &fullText

		if aff, err := w.evaluator.ExtractAffiliations(ctx, paper, fullText); err != nil {
			logger.Warn().Err(err).Msg("affiliation extraction failed, continuing without")
		} else {
			affJSON := sanitize.Text(encodeAffiliations(aff.Affiliations))
			paper.Affiliations = &affJSON
			paper.MainCompany = optionalText(aff.MainCompany)
			paper.MainUniversity = optionalText(aff.MainUniversity)
			paper.MainAffiliation = optionalText(aff.MainAffiliation)
		}
	} else {
		logger.Debug().Msg("no full text available, summarizing from abstract")
	}

	summary, err := w.evaluator.SummarizePaper(ctx, paper, fullText)
	if err != nil {
		logger.Warn().Err(err).Msg("summarization failed, persisting partial enrichment")
	} else {
		summary = sanitize.Text(summary)
		paper.SummaryPersonalized = &summary
		paper.Status = domain.StatusSummarized
	}

	if err := w.papers.SaveSummary(ctx, paper); err != nil {
		logger.Error().Err(err).Msg("persist summary failed")
		return false
	}
	if paper.Status != domain.StatusSummarized {
		return false
	}

	w.metrics.RecordSummarized()
	logger.Info().Bool("full_text", hasText).Msg("paper summarized")
	return true
}

// notifyStage groups all SUMMARIZED papers into date digests and delivers
// them. Papers advance to PUSHED only after every message was sent.
func (w *Worker) notifyStage(ctx context.Context, logger zerolog.Logger, stats *CycleStats) error {
	logger = observability.WithStageContext(logger, "notify")

	papers, err := w.papers.ListByStatus(ctx, domain.StatusSummarized, 0)
	if err != nil {
		return fmt.Errorf("list summarized papers: %w", err)
	}
	if len(papers) == 0 {
		return nil
	}
	if w.notifier == nil {
		logger.Warn().Int("pending", len(papers)).Msg("no notification channel, papers stay summarized")
		return nil
	}

	// All-or-nothing: a failed batch leaves every paper unpushed and
	// retried next cycle. Duplicate delivery of already-sent digests is an
	// accepted limitation.
	messages := RenderDigest(papers)
	if err := w.notifier.SendMessages(ctx, messages); err != nil {
		w.metrics.RecordNotification(w.notifier.Name(), err)
		logger.Error().Err(err).Msg("digest delivery failed, batch left for retry")
		return nil
	}
	for range messages {
		w.metrics.RecordNotification(w.notifier.Name(), nil)
	}

	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	if err := w.papers.MarkPushed(ctx, ids); err != nil {
		return fmt.Errorf("mark pushed: %w", err)
	}

	stats.Pushed = len(ids)
	w.metrics.RecordPushed(len(ids))
	logger.Info().Int("papers", len(ids)).Msg("digest delivered")
	return nil
}

func encodeAffiliations(names []string) string {
	return domain.EncodeAuthors(names)
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	clean := sanitize.Text(s)
	return &clean
}
