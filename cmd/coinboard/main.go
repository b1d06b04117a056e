// coinboard serves the coin query API and records hourly market history.
//
// Usage: go run ./cmd/coinboard [-config configs/coinboard.yaml] [-log-level debug]
//
// Environment variables (a .env file is loaded when present):
//
//	STORAGE_URL   - postgres://, redis:// or memory:// (aliases DATABASE_URL, MONGO_URI)
//	PROVIDER_URL  - markets endpoint (alias COINGECKO_URL)
//	PORT          - listen port, default 5000
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/coinboard/internal/config"
	"github.com/rickgao/coinboard/internal/feed"
	"github.com/rickgao/coinboard/internal/httpapi"
	"github.com/rickgao/coinboard/internal/ingest"
	"github.com/rickgao/coinboard/internal/metrics"
	"github.com/rickgao/coinboard/internal/provider"
	"github.com/rickgao/coinboard/internal/scheduler"
	"github.com/rickgao/coinboard/internal/store"
	"github.com/rickgao/coinboard/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting coinboard",
		"version", version.String(),
		"config", *configPath,
	)

	if err := run(*configPath, logger); err != nil {
		logger.Error("coinboard failed", "error", err)
		os.Exit(1)
	}

	logger.Info("coinboard stopped")
}

func run(configPath string, logger *slog.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"provider_url", cfg.Provider.URL,
		"schedule", cfg.Scheduler.Spec,
		"retention", cfg.History.Retention,
	)

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage
	st, err := store.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled() {
		m = metrics.New()
	}

	// Create provider client
	query := provider.DefaultMarketsQuery()
	query.Currency = cfg.Provider.Currency
	query.PerPage = cfg.Provider.PerPage

	client := provider.NewClient(
		cfg.Provider.URL,
		provider.WithLogger(logger),
		provider.WithTimeout(cfg.Provider.Timeout),
		provider.WithRetries(cfg.Provider.MaxRetries, time.Second),
		provider.WithAPIKey(cfg.Provider.APIKey),
		provider.WithQuery(query),
	)

	hub := feed.NewHub(feed.DefaultConfig(), logger)
	defer hub.Close()

	svc := ingest.NewService(
		ingest.Config{Retention: cfg.History.Retention},
		client,
		st,
		ingest.WithPublisher(hub),
		ingest.WithMetrics(m),
		ingest.WithLogger(logger),
	)

	// Hourly history job
	sched, err := scheduler.New(scheduler.Config{
		Spec:       cfg.Scheduler.Spec,
		Timeout:    cfg.Scheduler.Timeout,
		RunOnStart: cfg.Scheduler.RunOnStart,
	}, svc.RecordHistory, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpapi.NewRouter(httpapi.Options{
			Service:     svc,
			Pinger:      st,
			Feed:        hub,
			Metrics:     m,
			MetricsPath: cfg.Metrics.Path,
			Logger:      logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sched.Stop(shutdownCtx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		// Websocket subscribers are hijacked connections; Shutdown does not close them.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("coinboard running",
		"api_url", fmt.Sprintf("http://localhost:%d/api/coins", cfg.Server.Port),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	return g.Wait()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
