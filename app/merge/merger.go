package merge

import (
	"log/slog"
	"sort"

	"newslens/app/article"
)

// Merger combines article tables from the RSS and HTML pipelines into the
// single published table.
type Merger struct{}

func NewMerger() *Merger {
	return &Merger{}
}

// Run concatenates all readable input tables, sorts by date descending,
// deduplicates by URL (the most recent duplicate wins, because sorting
// happens before the drop) and writes the combined table. Unreadable
// inputs are warned about and excluded; zero readable inputs produce no
// output and no error.
func (m *Merger) Run(inputs []string, outPath string) (int, error) {
	var all []article.Article
	readable := 0

	for _, path := range inputs {
		rows, err := article.ReadTable(path)
		if err != nil {
			slog.Warn("Failed to read merge input, excluding", "path", path, "error", err)
			continue
		}
		readable++
		all = append(all, rows...)
	}

	if readable == 0 {
		slog.Info("No input tables to merge")
		return 0, nil
	}

	SortByDateDesc(all)
	all = DedupeByURL(all)

	if err := article.WriteTable(outPath, all); err != nil {
		return 0, err
	}

	slog.Info("Tables merged", "inputs", readable, "rows", len(all), "path", outPath)
	return len(all), nil
}

// SortByDateDesc sorts in place by the date string descending. ISO-8601
// strings order chronologically under lexicographic comparison; the sort
// is stable so merge output is deterministic.
func SortByDateDesc(rows []article.Article) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date > rows[j].Date
	})
}

// DedupeByURL keeps the first occurrence of each URL key (case-insensitive,
// whitespace-trimmed), preserving order.
func DedupeByURL(rows []article.Article) []article.Article {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}
