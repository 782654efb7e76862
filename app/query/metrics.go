package query

import (
	"sort"

	"newslens/app/article"
)

// VolumePoint is one per-day article count.
type VolumePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CountPoint is one labeled aggregate count.
type CountPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// VolumeByDay counts articles per UTC calendar day, sorted by day.
// Rows with missing or unparsable dates are excluded.
func VolumeByDay(rows []article.Article) []VolumePoint {
	counts := make(map[string]int)
	for _, row := range rows {
		t, ok := parseRowDate(row.Date)
		if !ok {
			continue
		}
		counts[t.Format("2006-01-02")]++
	}

	out := make([]VolumePoint, 0, len(counts))
	for day, n := range counts {
		out = append(out, VolumePoint{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CountByLanguage counts articles per language, empty treated as
// "Unknown", sorted by count descending.
func CountByLanguage(rows []article.Article) []CountPoint {
	return countBy(rows, func(a article.Article) string { return a.Language }, 0)
}

// TopSources counts articles per source, empty treated as "Unknown",
// sorted by count descending, capped at n.
func TopSources(rows []article.Article, n int) []CountPoint {
	return countBy(rows, func(a article.Article) string { return a.Source }, n)
}

func countBy(rows []article.Article, value func(article.Article) string, limit int) []CountPoint {
	counts := make(map[string]int)
	for _, row := range rows {
		label := value(row)
		if label == "" {
			label = "Unknown"
		}
		counts[label]++
	}

	out := make([]CountPoint, 0, len(counts))
	for label, n := range counts {
		out = append(out, CountPoint{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
