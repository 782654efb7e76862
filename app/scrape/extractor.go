package scrape

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newslens/app/article"
	"newslens/app/fetcher"
)

const (
	maxTitleLength = 140
	maxBodyLength  = 2000
)

// Publication-time metadata patterns, checked in fixed priority order.
var dateSelectors = []struct {
	selector string
	attr     string
}{
	{"meta[property='article:published_time']", "content"},
	{"meta[name='pubdate']", "content"},
	{"meta[name='date']", "content"},
	{"time[datetime]", "datetime"},
}

// Extractor maps the ranked candidate list of each page to one normalized
// article record. Pages without candidates are skipped entirely.
type Extractor struct {
	rawDir     string
	interimDir string
}

func NewExtractor(rawDir, interimDir string) *Extractor {
	return &Extractor{rawDir: rawDir, interimDir: interimDir}
}

// Run extracts one article per scored page.
func (e *Extractor) Run() ([]article.Article, error) {
	files, err := filepath.Glob(filepath.Join(e.interimDir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate files: %w", err)
	}
	sort.Strings(files)

	var rows []article.Article
	for _, jf := range files {
		htmlPath := filepath.Join(e.rawDir, strings.TrimSuffix(filepath.Base(jf), ".jsonl"))

		candidates, err := ReadCandidates(jf)
		if err != nil {
			slog.Warn("Failed to read candidates", "file", jf, "error", err)
			continue
		}

		best, ok := BestCandidate(candidates)
		if !ok {
			slog.Debug("No candidate blocks, skipping page", "file", jf)
			continue
		}

		meta := fetcher.ReadPageMeta(htmlPath)
		rows = append(rows, BuildArticle(best, meta, dateFromPage(htmlPath)))
	}

	return rows, nil
}

// BestCandidate re-ranks and picks the highest-scored candidate.
func BestCandidate(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	RankCandidates(ranked)
	return ranked[0], true
}

// BuildArticle maps the winning block plus fetch metadata to the canonical
// record.
func BuildArticle(best Candidate, meta fetcher.PageMeta, htmlDate string) article.Article {
	title := best.Meta.TitleGuess
	if title == "" {
		title = firstSentence(best.Block.Text, maxTitleLength)
	}

	pageURL := cmp.Or(meta.FinalURL, meta.RequestedURL)
	host := article.Hostname(pageURL)

	return article.Article{
		Title:    title,
		Body:     truncateRunes(best.Block.Text, maxBodyLength),
		Language: ClassifyLanguage(host),
		Date:     cmp.Or(htmlDate, meta.Headers["Last-Modified"]),
		Source:   host,
		URL:      pageURL,
	}
}

// DateFromHTML scans known metadata tag patterns for a publication time,
// in priority order. Returns "" when none matches.
func DateFromHTML(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ""
	}

	for _, pattern := range dateSelectors {
		el := doc.Find(pattern.selector).First()
		if el.Length() == 0 {
			continue
		}
		if val, ok := el.Attr(pattern.attr); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

func dateFromPage(htmlPath string) string {
	f, err := os.Open(htmlPath)
	if err != nil {
		return ""
	}
	defer f.Close()
	return DateFromHTML(f)
}

// firstSentence returns the text up to the first period, capped.
func firstSentence(text string, max int) string {
	if i := strings.Index(text, "."); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(truncateRunes(text, max))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
