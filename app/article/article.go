package article

import (
	"net/url"
	"strings"
)

// Columns is the canonical six-column schema every stage converges to.
var Columns = []string{"title", "body", "language", "date", "source", "url"}

// Article is the canonical record. All fields are always present; empty
// string means unknown. URL uniquely identifies a record after
// deduplication.
type Article struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Language string `json:"language"`
	Date     string `json:"date"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

func (a Article) Row() []string {
	return []string{a.Title, a.Body, a.Language, a.Date, a.Source, a.URL}
}

// Key returns the deduplication key for URL-based dedup: trimmed and
// lowercased, so case and whitespace variants collide.
func (a Article) Key() string {
	return strings.ToLower(strings.TrimSpace(a.URL))
}

// Hostname extracts the bare hostname of a URL, with any "www." prefix
// stripped. Returns "" when the URL has no host.
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
