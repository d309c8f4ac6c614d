// Package main runs a single pipeline cycle and exits. Intended for cron
// environments where no long-running server is wanted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixir/paper-agent/internal/arxiv"
	"github.com/helixir/paper-agent/internal/config"
	"github.com/helixir/paper-agent/internal/database"
	"github.com/helixir/paper-agent/internal/datafix"
	"github.com/helixir/paper-agent/internal/llm"
	"github.com/helixir/paper-agent/internal/notify"
	"github.com/helixir/paper-agent/internal/observability"
	"github.com/helixir/paper-agent/internal/pdf"
	"github.com/helixir/paper-agent/internal/pipeline"
	"github.com/helixir/paper-agent/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}, nil)

	metrics := observability.NewMetrics("paperagent")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		if err := migrator.Up(); err != nil {
			migrator.Close()
			return fmt.Errorf("apply schema migrations: %w", err)
		}
		if err := migrator.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close migrator")
		}
	}

	if err := datafix.NewRunner(db.Pool(), datafix.All(), logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("data fixes incomplete, continuing in degraded mode")
	}

	paperRepo := repository.NewPgPaperRepository(db)
	authorRepo := repository.NewPgAuthorRepository(db)

	fetcher := arxiv.New(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Categories: cfg.ArXiv.Categories,
		SyncLimit:  cfg.ArXiv.SyncLimit,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		BurstSize:  cfg.ArXiv.BurstSize,
	})

	evaluator, err := llm.NewEvaluator(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return fmt.Errorf("create evaluator: %w", err)
	}

	extractor := pdf.NewExtractor(pdf.NewDownloader(pdf.Config{
		Timeout:   cfg.PDF.Timeout,
		MaxSize:   cfg.PDF.MaxSizeBytes,
		UserAgent: cfg.PDF.UserAgent,
	}), logger)

	notifier := notify.FromConfig(cfg.Notify, logger)
	if closer, ok := notifier.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close notifier")
			}
		}()
	}

	worker := pipeline.NewWorker(pipeline.Config{
		Profile:             cfg.LLM.Profile,
		ScoreThreshold:      cfg.Pipeline.ScoreThreshold,
		Concurrency:         cfg.Pipeline.Concurrency,
		RescoreCooldown:     cfg.Pipeline.RescoreCooldown,
		ResummarizeCooldown: cfg.Pipeline.ResummarizeCooldown,
	}, pipeline.Deps{
		Papers:    paperRepo,
		Authors:   authorRepo,
		Fetcher:   fetcher,
		Evaluator: evaluator,
		Extractor: extractor,
		Notifier:  notifier,
		Metrics:   metrics,
	}, logger)

	stats, err := worker.RunCycle(ctx, "cli")
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	logger.Info().
		Int("fetched", stats.Fetched).
		Int("inserted", stats.Inserted).
		Int("scored", stats.Scored).
		Int("summarized", stats.Summarized).
		Int("pushed", stats.Pushed).
		Msg("cycle finished")
	return nil
}
