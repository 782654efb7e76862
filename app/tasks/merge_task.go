package tasks

import (
	"context"
	"log/slog"
	"path/filepath"

	"newslens/app/merge"
)

// MergeTask combines the RSS and HTML tables into the published table.
type MergeTask struct {
	Task
	processedDir string
}

func NewMergeTask(processedDir string) *MergeTask {
	return &MergeTask{
		Task:         NewTask(TaskTypeMerge),
		processedDir: processedDir,
	}
}

func (t *MergeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	inputs := []string{
		filepath.Join(t.processedDir, "articles_rss.csv"),
		filepath.Join(t.processedDir, "articles_html.csv"),
	}
	outPath := filepath.Join(t.processedDir, "articles.csv")

	rows, err := merge.NewMerger().Run(inputs, outPath)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"rows", rows)

	return nil
}
