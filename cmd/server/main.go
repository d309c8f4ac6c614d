// Package main is the entrypoint for the paper agent server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixir/paper-agent/internal/arxiv"
	"github.com/helixir/paper-agent/internal/config"
	"github.com/helixir/paper-agent/internal/database"
	"github.com/helixir/paper-agent/internal/datafix"
	"github.com/helixir/paper-agent/internal/llm"
	"github.com/helixir/paper-agent/internal/logstream"
	"github.com/helixir/paper-agent/internal/notify"
	"github.com/helixir/paper-agent/internal/observability"
	"github.com/helixir/paper-agent/internal/pdf"
	"github.com/helixir/paper-agent/internal/pipeline"
	"github.com/helixir/paper-agent/internal/repository"
	"github.com/helixir/paper-agent/internal/scheduler"
	httpserver "github.com/helixir/paper-agent/internal/server/http"
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

	// The relay duplicates every log line to connected SSE clients.
	relay := logstream.NewRelay(0)
	defer relay.Close()

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}, relay)
	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("address", cfg.Server.HTTPAddress()).
		Msg("paper agent starting")

	metrics := observability.NewMetrics("paperagent")

	// Set up signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

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

	// Data fixes degrade on failure instead of blocking startup; the chain
	// stops at the first failed fix and retries on the next boot.
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

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler.Time, worker, logger)
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		sched.Start()
		defer func() {
			<-sched.Stop().Done()
		}()
		logger.Info().Str("time", cfg.Scheduler.Time).Msg("daily update scheduled")
	}

	httpSrv := httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
	}, worker, paperRepo, authorRepo, db, relay, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Server.HTTPAddress()).Msg("HTTP server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}

	logger.Info().Msg("paper agent stopped")
	return nil
}
