package query

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"newslens/app/article"
)

// TableInfo describes one CSV load attempt under the processed directory.
type TableInfo struct {
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// Service answers article queries over every CSV table under the processed
// directory. Tables are re-read per request: the pipeline replaces them
// atomically, so a reader always sees a complete table.
type Service struct {
	processedDir string
}

func NewService(processedDir string) *Service {
	return &Service{processedDir: processedDir}
}

// Load reads every *.csv under the processed directory, coerces each to
// the canonical schema, concatenates and deduplicates on full-row
// equality. Unreadable tables are excluded and reported in the table info,
// never fatal.
func (s *Service) Load() ([]article.Article, []TableInfo) {
	paths, err := filepath.Glob(filepath.Join(s.processedDir, "*.csv"))
	if err != nil {
		return nil, nil
	}
	sort.Strings(paths)

	var all []article.Article
	infos := make([]TableInfo, 0, len(paths))

	for _, path := range paths {
		rows, err := article.ReadTable(path)
		if err != nil {
			infos = append(infos, TableInfo{Path: path, Error: err.Error()})
			continue
		}
		infos = append(infos, TableInfo{Path: path, Rows: len(rows)})
		all = append(all, rows...)
	}

	return dedupeRows(all), infos
}

// dedupeRows drops rows that are equal across all six columns. Stricter
// than the merger's URL-only dedup; the two are deliberately kept
// per-component.
func dedupeRows(rows []article.Article) []article.Article {
	seen := make(map[article.Article]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Facets returns the distinct non-empty values of a column, sorted, with
// the "All" sentinel prepended.
func Facets(rows []article.Article, value func(article.Article) string) []string {
	set := make(map[string]struct{})
	for _, row := range rows {
		if v := value(row); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, "All")
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append(out, keys...)
}

// LastUpdated picks the freshest timestamp between the maximum parsed
// article date and the merged table's file modification time. Returns ""
// when neither is known.
func (s *Service) LastUpdated(rows []article.Article) string {
	var chosen time.Time

	for _, row := range rows {
		if t, ok := parseRowDate(row.Date); ok && t.After(chosen) {
			chosen = t
		}
	}

	if st, err := os.Stat(filepath.Join(s.processedDir, "articles.csv")); err == nil {
		if mtime := st.ModTime().UTC(); mtime.After(chosen) {
			chosen = mtime
		}
	}

	if chosen.IsZero() {
		return ""
	}
	return chosen.In(time.Local).Format(time.RFC3339)
}

// ExportCSV renders the canonical table for download.
func ExportCSV(rows []article.Article) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(article.Columns); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Row()); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}
