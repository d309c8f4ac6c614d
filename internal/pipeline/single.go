package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-agent/internal/domain"
	"github.com/helixir/paper-agent/internal/observability"
)

// ProcessPaper runs the full pipeline for a single paper, sequentially,
// re-reading state from storage between stages so a concurrent operator
// override is respected. Unknown IDs are fetched from the feed source
// first. forceRescore re-runs scoring even for already-scored papers.
func (w *Worker) ProcessPaper(ctx context.Context, id string, forceRescore bool) (*domain.Paper, error) {
	logger := observability.WithPaperContext(w.logger.With().Str("trigger", "single").Logger(), id)

	paper, err := w.papers.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		paper, err = w.ingestByID(ctx, logger, id)
	}
	if err != nil {
		return nil, err
	}

	if forceRescore || paper.Status == domain.StatusNew || paper.Status == domain.StatusFiltered {
		w.scoreOne(ctx, logger, id)
	}

	// Fresh snapshot; scoring may have moved the paper, or an operator may
	// have overridden it mid-run.
	paper, err = w.papers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if paper.Status == domain.StatusScored ||
		(effectiveScore(paper) >= w.cfg.ScoreThreshold && !paper.HasSummary()) {
		w.summarizeOne(ctx, logger, id)
	}

	paper, err = w.papers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if paper.Status == domain.StatusSummarized && w.notifier != nil {
		if err := w.notifier.SendMessage(ctx, RenderSingle(paper)); err != nil {
			w.metrics.RecordNotification(w.notifier.Name(), err)
			logger.Error().Err(err).Msg("single-paper notification failed")
			return paper, nil
		}
		w.metrics.RecordNotification(w.notifier.Name(), nil)
		if err := w.papers.MarkPushed(ctx, []string{id}); err != nil {
			return paper, fmt.Errorf("mark pushed: %w", err)
		}
		w.metrics.RecordPushed(1)
		paper, err = w.papers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return paper, nil
}

// ingestByID fetches an unknown paper from the feed source and persists it.
func (w *Worker) ingestByID(ctx context.Context, logger zerolog.Logger, id string) (*domain.Paper, error) {
	fetched, err := w.fetcher.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("paper not in storage, ingesting from feed source")
	if _, err := w.papers.InsertBatch(ctx, []*domain.Paper{fetched}); err != nil {
		return nil, fmt.Errorf("insert paper: %w", err)
	}
	return w.papers.GetByID(ctx, fetched.ID)
}

// Rescore force re-scores every paper published on the given UTC day and
// runs each through the rest of the pipeline, one at a time. Guarded by a
// per-date cooldown.
func (w *Worker) Rescore(ctx context.Context, day string) (int, error) {
	if wait, ok := w.cooldowns.Reserve("rescore:"+day, w.cfg.RescoreCooldown); !ok {
		w.metrics.RecordCooldownRejection("rescore")
		return 0, domain.NewRateLimitError("rescore", wait)
	}

	papers, err := w.papers.ListByPublishedDay(ctx, day)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, p := range papers {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if _, err := w.ProcessPaper(ctx, p.ID, true); err != nil {
			w.logger.Error().Err(err).Str("paper_id", p.ID).Msg("rescore failed for paper")
			continue
		}
		processed++
	}
	w.logger.Info().Str("day", day).Int("processed", processed).Msg("date rescore completed")
	return processed, nil
}

// Resummarize re-runs scoring (unless a manual score is set) and then
// unconditionally re-runs summarization for one paper. Never notifies.
// Guarded by a per-paper cooldown.
func (w *Worker) Resummarize(ctx context.Context, id string) (*domain.Paper, error) {
	if wait, ok := w.cooldowns.Reserve("resummarize:"+id, w.cfg.ResummarizeCooldown); !ok {
		w.metrics.RecordCooldownRejection("resummarize")
		return nil, domain.NewRateLimitError("resummarize", wait)
	}

	logger := observability.WithPaperContext(w.logger.With().Str("trigger", "resummarize").Logger(), id)

	if _, err := w.papers.GetByID(ctx, id); err != nil {
		return nil, err
	}

	w.scoreOne(ctx, logger, id)
	w.summarizeOne(ctx, logger, id)

	return w.papers.GetByID(ctx, id)
}
