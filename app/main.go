package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newslens/app/api"
	"newslens/app/cfg"
	"newslens/app/query"
	"newslens/app/sources"
	"newslens/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting NewsLens server", "version", appCfg.Version)

	srcs, err := sources.NewLoader(appCfg.SourcesFile, appCfg.DefaultLanguage).Load()
	if err != nil {
		slog.Error("Failed to load sources", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Sources loaded", "file", appCfg.SourcesFile, "count", len(srcs))

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	scheduler := tasks.NewScheduler(tasks.Options{
		HTTPClient:   httpClient,
		Sources:      srcs,
		RawDir:       appCfg.RawDir(),
		InterimDir:   appCfg.InterimDir(),
		ProcessedDir: appCfg.ProcessedDir(),
		UserAgent:    appCfg.UserAgent,
		FetchDelay:   time.Duration(appCfg.FetchDelay * float64(time.Second)),
		IgnoreRobots: appCfg.IgnoreRobots,
		WithHTML:     appCfg.WithHTML,
		Interval:     time.Duration(appCfg.RefreshInterval) * time.Second,
		WorkerCount:  appCfg.WorkerCount,
	})

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "refresh_interval", appCfg.RefreshInterval, "with_html", appCfg.WithHTML)
	scheduler.Start()
	defer scheduler.Stop()

	// Kick off the initial pipeline run; periodic re-runs are the
	// scheduler's business when a refresh interval is configured
	scheduler.EnqueuePublishRun()

	queryService := query.NewService(appCfg.ProcessedDir())
	apiHandler := api.NewHandler(queryService, scheduler, appCfg.TopSources, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
