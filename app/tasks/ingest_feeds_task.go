package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"newslens/app/article"
	"newslens/app/merge"
	"newslens/app/rss"
	"newslens/app/sources"
)

// IngestFeedsTask pulls recent entries from every source's feed and writes
// the RSS article table. The table is written even when empty so the merge
// step always sees a current file.
type IngestFeedsTask struct {
	Task
	httpClient   *http.Client
	userAgent    string
	sources      []sources.Source
	processedDir string
}

func NewIngestFeedsTask(httpClient *http.Client, userAgent string, srcs []sources.Source, processedDir string) *IngestFeedsTask {
	return &IngestFeedsTask{
		Task:         NewTask(TaskTypeIngestFeeds),
		httpClient:   httpClient,
		userAgent:    userAgent,
		sources:      srcs,
		processedDir: processedDir,
	}
}

func (t *IngestFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Fresh extractor per run: URL dedup is global within a run only
	extractor := rss.NewExtractor(t.httpClient, t.userAgent)
	rows := extractor.Run(ctx, t.sources)

	merge.SortByDateDesc(rows)
	rows = merge.DedupeByURL(rows)

	outPath := filepath.Join(t.processedDir, "articles_rss.csv")
	if err := article.WriteTable(outPath, rows); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"sources", len(t.sources),
		"rows", len(rows))

	return nil
}
