package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/wizreport/internal/config"
	"github.com/JonMunkholm/wizreport/internal/core"
	"github.com/JonMunkholm/wizreport/internal/logging"
	"github.com/JonMunkholm/wizreport/internal/metrics"
	"github.com/JonMunkholm/wizreport/internal/store"
	"github.com/JonMunkholm/wizreport/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_max", cfg.Session.Max,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_enabled", cfg.Audit.Enabled(),
	)

	ctx := context.Background()

	// Optional run log
	var (
		recorder core.RunRecorder = core.NopRecorder{}
		runs     web.RunLister
		runLog   *store.RunLog
	)
	if cfg.Audit.Enabled() {
		pool, err := store.Open(ctx, cfg.Audit)
		if err != nil {
			slog.Error("failed to open run log database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runLog = store.NewRunLog(pool)
		if err := runLog.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create run log schema", "error", err)
			os.Exit(1)
		}
		recorder, runs = runLog, runLog

		if u, err := url.Parse(cfg.Audit.URL); err == nil {
			slog.Info("run log connected", "database", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("run log connected")
		}
	} else {
		slog.Info("run log disabled (no DATABASE_URL)")
	}

	var service *core.Service
	m := metrics.New(
		func() int { return service.SessionCount() },
		func() int { return service.Limiter().ActiveCount() },
	)

	service = core.NewService(core.ServiceConfig{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		RunTimeout:    cfg.Upload.Timeout,
		SessionTTL:    cfg.Session.TTL,
		MaxSessions:   cfg.Session.Max,
		OnRun:         m.ObserveRun,
	}, recorder, m.ObserveStage)

	server := web.NewServer(service, cfg, m, runs)

	// Background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartJanitor(jobCtx, cfg.Session.SweepInterval)
	if runLog != nil {
		go runLog.StartRetention(jobCtx, cfg.Audit.RetentionDays, store.DefaultPurgeInterval)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active runs to complete (with timeout)
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
