package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/takerupon/lp-generator/internal/config"
	"github.com/takerupon/lp-generator/internal/core/event"
	"github.com/takerupon/lp-generator/internal/core/generator/agents"
	"github.com/takerupon/lp-generator/internal/core/generator/anthropic"
	"github.com/takerupon/lp-generator/internal/core/generator/gemini"
	"github.com/takerupon/lp-generator/internal/core/job"
	"github.com/takerupon/lp-generator/internal/core/pipeline"
	"github.com/takerupon/lp-generator/internal/core/service"
	"github.com/takerupon/lp-generator/internal/core/storage"
	"github.com/takerupon/lp-generator/internal/server/api"
)

func Run(_ context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Debug().Str("level", cfg.Logging.Level).Msg("log level configured")

	if cfg.Providers.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic API key is required (set ANTHROPIC_API_KEY or providers.anthropic.api_key)")
	}
	if cfg.Providers.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required (set GEMINI_API_KEY or providers.gemini.api_key)")
	}

	data, err := storage.NewLocal(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	if n := data.CleanStaleWorkDirs(); n > 0 {
		log.Info().Int("count", n).Msg("cleaned stale working areas")
	}

	bus := event.NewBus()
	setupEventLogging(bus)

	store := job.NewStore(data, cfg.Jobs.HistoryLimit)

	claude := anthropic.NewClient(
		cfg.Providers.Anthropic.BaseURL,
		cfg.Providers.Anthropic.APIKey,
		cfg.Providers.Anthropic.Model,
		cfg.Providers.Anthropic.MaxTokens,
	)
	geminiClient := gemini.NewClient(cfg.Providers.Gemini.BaseURL, cfg.Providers.Gemini.APIKey)
	imagenClient := gemini.NewClient(cfg.Providers.Gemini.BaseURL, cfg.Providers.Imagen.APIKey)
	gen := agents.New(claude, geminiClient, imagenClient, cfg.Providers.Gemini.Model, cfg.Providers.Imagen.Model)

	executor := pipeline.NewExecutor(store, gen, data, bus, cfg.Pipeline.RequireImage)
	svc := service.New(store, executor, data, bus, cfg.Jobs.MaxConcurrent)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupRouter(e, api.RouterConfig{Svc: svc, Data: data})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info().Str("addr", addr).Str("data_dir", data.Root()).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}

// setupEventLogging writes one log line per job lifecycle event. Running
// jobs can still complete after shutdown begins, so the handlers only log
// and never touch shared state.
func setupEventLogging(bus event.Bus) {
	bus.Subscribe(event.EventJobCreated, func(_ context.Context, e event.Event) error {
		evt := log.Info().Str("job_id", e.Job.JobID)
		if e.Job.RetryOf != "" {
			evt = evt.Str("retry_of", e.Job.RetryOf)
		}
		evt.Msg("job created")
		return nil
	})

	bus.Subscribe(event.EventJobCompleted, func(_ context.Context, e event.Event) error {
		log.Info().Str("job_id", e.Job.JobID).Dur("duration", e.Job.Duration).Msg("job completed")
		return nil
	})

	bus.Subscribe(event.EventJobFailed, func(_ context.Context, e event.Event) error {
		log.Warn().Str("job_id", e.Job.JobID).Str("error", e.Job.Error).Msg("job failed")
		return nil
	})
}
