package fetcher

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Fetch attempt statuses recorded in the manifest.
const (
	StatusOK              = "ok"
	StatusError           = "error"
	StatusBlockedByRobots = "blocked_by_robots"
	StatusSkipInvalidURL  = "skip_invalid_url"
)

var manifestColumns = []string{
	"name", "url", "language", "group",
	"status", "http_status", "path", "timestamp", "final_url",
}

// ManifestRow is one fetch attempt. The manifest is the single append-only
// file in the pipeline; every other write is a full replacement.
type ManifestRow struct {
	Name       string
	URL        string
	Language   string
	Group      string
	Status     string
	HTTPStatus string
	Path       string
	Timestamp  string
	FinalURL   string
}

func (r ManifestRow) fields() []string {
	return []string{
		r.Name, r.URL, r.Language, r.Group,
		r.Status, r.HTTPStatus, r.Path, r.Timestamp, r.FinalURL,
	}
}

// AppendManifestRow appends one attempt to the manifest CSV, writing the
// header first when the file is new.
func AppendManifestRow(path string, row ManifestRow) error {
	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(manifestColumns); err != nil {
			return fmt.Errorf("failed to write manifest header: %w", err)
		}
	}
	if err := w.Write(row.fields()); err != nil {
		return fmt.Errorf("failed to write manifest row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	return nil
}
