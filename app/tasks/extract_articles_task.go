package tasks

import (
	"context"
	"log/slog"
	"path/filepath"

	"newslens/app/article"
	"newslens/app/scrape"
)

// ExtractArticlesTask scores the fetched pages into candidate blocks and
// maps the winner of each page to the HTML article table.
type ExtractArticlesTask struct {
	Task
	rawDir       string
	interimDir   string
	processedDir string
}

func NewExtractArticlesTask(rawDir, interimDir, processedDir string) *ExtractArticlesTask {
	return &ExtractArticlesTask{
		Task:         NewTask(TaskTypeExtractArticles),
		rawDir:       rawDir,
		interimDir:   interimDir,
		processedDir: processedDir,
	}
}

func (t *ExtractArticlesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	scorer := scrape.NewScorer(t.rawDir, t.interimDir)
	pages, err := scorer.Run()
	if err != nil {
		return err
	}

	extractor := scrape.NewExtractor(t.rawDir, t.interimDir)
	rows, err := extractor.Run()
	if err != nil {
		return err
	}

	outPath := filepath.Join(t.processedDir, "articles_html.csv")
	if err := article.WriteTable(outPath, rows); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"pages", pages,
		"rows", len(rows))

	return nil
}
