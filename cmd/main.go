// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pmorell/localevents/internal/config"
	"github.com/pmorell/localevents/internal/database"
	"github.com/pmorell/localevents/internal/engine"
	"github.com/pmorell/localevents/internal/handler"
	"github.com/pmorell/localevents/internal/interaction"
	applog "github.com/pmorell/localevents/internal/log"
	"github.com/pmorell/localevents/internal/rank"
	"github.com/pmorell/localevents/internal/repository"
	"github.com/pmorell/localevents/internal/source"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	ctx := context.Background()

	// ── 1. Configuration ─────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		applog.Error("config load failed", err, "path", *configPath)
		os.Exit(1)
	}
	fetchCfg := cfg.ActiveFetch()

	// ── 2. Event source: Postgres when enabled, upstream HTTP otherwise ──
	var (
		src  source.EventSource
		repo *repository.EventRepository
	)
	if cfg.Database.Enabled {
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			applog.Error("database connect failed", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = repository.NewEventRepository(pool)
		src = repo
		applog.Info("using postgres event source")
	} else {
		src = source.NewHTTPSource(cfg.UpstreamURL, time.Duration(fetchCfg.TimeoutSeconds)*time.Second)
		applog.Info("using upstream event source", "url", cfg.UpstreamURL)
	}

	// ── 3. Wire up the engine ────────────────────────────────────────────
	cache := interaction.NewCache()
	eng := engine.New(src, cache, rank.NewScorer(cfg.Ranking), engine.Options{
		FetchLimit:  fetchCfg.Limit,
		BackupDelay: time.Duration(fetchCfg.BackupDelaySeconds) * time.Second,
	})
	defer eng.Close()

	// Initial load. A failure is not fatal: the error is surfaced as a
	// dismissible status message and the backup fetch retries.
	loadCtx, cancel := context.WithTimeout(ctx, time.Duration(fetchCfg.TimeoutSeconds)*time.Second)
	if err := eng.Refresh(loadCtx); err != nil {
		applog.Error("initial event load failed", err)
	}
	cancel()

	// Periodic refresh on the configured cron schedule.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		if err := eng.Refresh(context.Background()); err != nil {
			applog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		applog.Error("invalid refresh schedule", err, "cron", cfg.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ── 4. HTTP server with graceful shutdown ────────────────────────────
	h := handler.NewDiscoveryHandler(eng, cache, repo)
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      handler.Router(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		applog.Info("server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Error("server error", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	applog.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.Error("graceful shutdown failed", err)
		os.Exit(1)
	}
	applog.Info("server stopped")
}

func defaultConfigPath() string {
	if v := os.Getenv("LOCALEVENTS_CONFIG"); v != "" {
		return v
	}
	return "./localevents.yaml"
}
