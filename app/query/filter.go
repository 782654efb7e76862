package query

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"newslens/app/article"
)

// PageSize is the fixed page size of the articles endpoint.
const PageSize = 24

// Filter is one query against the article set. Empty fields and the "All"
// sentinel disable the corresponding filter.
type Filter struct {
	Query    string
	Language string
	Source   string
	DateKey  string // "", "today" or "<N>d"
}

// Apply evaluates the text, language and source filters. Date-window
// filtering is separate (ApplyDateWindow) because facets and aggregates
// are computed on the date-windowed base set, before the other filters.
func Apply(rows []article.Article, f Filter) []article.Article {
	out := rows

	if lang := strings.TrimSpace(f.Language); lang != "" && !strings.EqualFold(lang, "all") {
		filtered := make([]article.Article, 0, len(out))
		for _, row := range out {
			if strings.EqualFold(row.Language, lang) {
				filtered = append(filtered, row)
			}
		}
		out = filtered
	}

	if src := strings.TrimSpace(f.Source); src != "" && !strings.EqualFold(src, "all") {
		needle := strings.ToLower(src)
		filtered := make([]article.Article, 0, len(out))
		for _, row := range out {
			if strings.Contains(strings.ToLower(row.Source), needle) {
				filtered = append(filtered, row)
			}
		}
		out = filtered
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		needle := strings.ToLower(q)
		filtered := make([]article.Article, 0, len(out))
		for _, row := range out {
			if strings.Contains(strings.ToLower(row.Title), needle) ||
				strings.Contains(strings.ToLower(row.Body), needle) {
				filtered = append(filtered, row)
			}
		}
		out = filtered
	}

	return out
}

// ApplyDateWindow keeps rows whose parsed date falls inside the window.
// An empty or unrecognized key disables filtering; rows with unparsable
// dates are excluded from filtered views, not errored.
func ApplyDateWindow(rows []article.Article, dateKey string, now time.Time) []article.Article {
	start, ok := windowStart(dateKey, now)
	if !ok {
		return rows
	}

	out := make([]article.Article, 0, len(rows))
	for _, row := range rows {
		t, parsed := parseRowDate(row.Date)
		if !parsed {
			continue
		}
		if !t.Before(start) {
			out = append(out, row)
		}
	}
	return out
}

// windowStart resolves a date key to the window's start instant in UTC.
// The second return is false when the key disables filtering.
func windowStart(dateKey string, now time.Time) (time.Time, bool) {
	key := strings.TrimSpace(dateKey)
	if key == "" {
		return time.Time{}, false
	}

	now = now.UTC()
	if key == "today" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}

	if strings.HasSuffix(key, "d") {
		digits := strings.TrimSuffix(key, "d")
		if digits != "" && isDigits(digits) {
			days := 0
			for _, c := range digits {
				days = days*10 + int(c-'0')
			}
			return now.AddDate(0, 0, -days), true
		}
	}

	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseRowDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Paginate slices one 1-indexed page of the filtered set.
func Paginate(rows []article.Article, page int) []article.Article {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start >= len(rows) {
		return []article.Article{}
	}
	end := start + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
