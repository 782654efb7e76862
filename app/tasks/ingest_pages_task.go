package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"newslens/app/fetcher"
	"newslens/app/sources"
)

// IngestPagesTask fetches one HTML page per source into the raw directory.
type IngestPagesTask struct {
	Task
	httpClient   *http.Client
	rawDir       string
	userAgent    string
	delay        time.Duration
	ignoreRobots bool
	sources      []sources.Source
}

func NewIngestPagesTask(httpClient *http.Client, rawDir, userAgent string, delay time.Duration, ignoreRobots bool, srcs []sources.Source) *IngestPagesTask {
	return &IngestPagesTask{
		Task:         NewTask(TaskTypeIngestPages),
		httpClient:   httpClient,
		rawDir:       rawDir,
		userAgent:    userAgent,
		delay:        delay,
		ignoreRobots: ignoreRobots,
		sources:      srcs,
	}
}

func (t *IngestPagesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Fresh fetcher per run so the robots cache does not outlive the run
	f := fetcher.NewFetcher(t.httpClient, t.rawDir, t.userAgent, t.delay, t.ignoreRobots)
	fetched, err := f.Run(ctx, t.sources)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"sources", len(t.sources),
		"fetched", fetched)

	return nil
}
