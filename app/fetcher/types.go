package fetcher

import (
	"encoding/json"
	"fmt"
	"os"

	"newslens/app/sources"
)

// PageMeta is the sidecar metadata written next to each fetched page. The
// article extractor reads it back for the final URL, headers and fetch
// timestamp.
type PageMeta struct {
	Source       sources.Source    `json:"source"`
	RequestedURL string            `json:"requested_url"`
	FinalURL     string            `json:"final_url"`
	StatusCode   int               `json:"status_code"`
	FetchedAt    string            `json:"fetched_at"`
	Headers      map[string]string `json:"headers"`
}

// MetaPath returns the sidecar path for a raw page artifact.
func MetaPath(htmlPath string) string {
	return htmlPath + ".meta.json"
}

func WritePageMeta(htmlPath string, meta PageMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal page meta: %w", err)
	}
	if err := os.WriteFile(MetaPath(htmlPath), data, 0644); err != nil {
		return fmt.Errorf("failed to write page meta: %w", err)
	}
	return nil
}

// ReadPageMeta loads the sidecar for a raw page. A missing or unreadable
// sidecar yields an empty PageMeta, not an error: extraction degrades, it
// does not fail.
func ReadPageMeta(htmlPath string) PageMeta {
	var meta PageMeta
	data, err := os.ReadFile(MetaPath(htmlPath))
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return PageMeta{}
	}
	return meta
}
