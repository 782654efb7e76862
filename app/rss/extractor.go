package rss

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"newslens/app/article"
	"newslens/app/sources"
)

const (
	maxPerSource  = 8
	maxTitleChars = 180
	maxBodyChars  = 800
)

// Extractor pulls recent entries from each source's RSS/Atom feed. URL
// deduplication is global across all sources of one run, so a run uses one
// Extractor.
type Extractor struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string

	seen map[string]struct{}
}

func NewExtractor(httpClient *http.Client, userAgent string) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
		seen:       make(map[string]struct{}),
	}
}

// Run extracts up to maxPerSource articles per source, newest first.
// Sources without a resolvable or readable feed are skipped with the
// reason logged; they never abort the run.
func (e *Extractor) Run(ctx context.Context, srcs []sources.Source) []article.Article {
	var rows []article.Article

	for _, src := range srcs {
		select {
		case <-ctx.Done():
			return rows
		default:
		}

		kept, err := e.extractSource(ctx, src)
		if err != nil {
			slog.Info("Source skipped", "source", src.Name, "reason", err)
			continue
		}

		rows = append(rows, kept...)
		slog.Info("Feed processed", "source", src.Name, "kept", len(kept))
	}

	return rows
}

func (e *Extractor) extractSource(ctx context.Context, src sources.Source) ([]article.Article, error) {
	feedURL := src.RSS
	if feedURL == "" {
		if src.URL == "" {
			return nil, fmt.Errorf("no url provided")
		}
		discovered, err := e.DiscoverFeedURL(ctx, src.URL)
		if err != nil {
			return nil, fmt.Errorf("no rss found: %w", err)
		}
		feedURL = discovered
	}

	data, err := e.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("feed unreadable: %w", err)
	}

	feed, err := e.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("feed unparsable: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed empty")
	}

	items := make([]article.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		items = append(items, article.Article{
			Title:    StripTags(item.Title, maxTitleChars),
			Body:     StripTags(cmp.Or(item.Description, item.Content), maxBodyChars),
			Language: src.Language,
			Date:     entryDate(item),
			Source:   src.Name,
			URL:      link,
		})
	}

	// Newest first, cap per source, dedupe globally across the run
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})

	kept := make([]article.Article, 0, maxPerSource)
	for _, it := range items {
		if len(kept) >= maxPerSource {
			break
		}
		h := urlHash(it.URL)
		if _, dup := e.seen[h]; dup {
			continue
		}
		e.seen[h] = struct{}{}
		kept = append(kept, it)
	}

	return kept, nil
}

// DiscoverFeedURL requests a source homepage and scans it for a linked
// alternate feed reference, matching on rss/atom/xml MIME-type hints.
func (e *Extractor) DiscoverFeedURL(ctx context.Context, homeURL string) (string, error) {
	data, err := e.fetch(ctx, homeURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse homepage: %w", err)
	}

	base, err := url.Parse(homeURL)
	if err != nil {
		return "", fmt.Errorf("invalid homepage URL: %w", err)
	}

	found := ""
	doc.Find("link[rel~='alternate']").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		typ := strings.ToLower(link.AttrOr("type", ""))
		if !strings.Contains(typ, "rss") && !strings.Contains(typ, "atom") && !strings.Contains(typ, "xml") {
			return true
		}
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})

	if found == "" {
		return "", fmt.Errorf("no alternate feed link on homepage")
	}
	return found, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// entryDate resolves an entry's publish timestamp as UTC ISO-8601:
// published, else updated, else the current time.
func entryDate(item *gofeed.Item) string {
	raw := cmp.Or(item.Published, item.Updated)
	if raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// StripTags flattens an HTML fragment to plain text, collapses whitespace
// and trims to max runes with an ellipsis suffix when truncated.
func StripTags(fragment string, max int) string {
	if fragment == "" {
		return ""
	}

	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return text
}

// urlHash normalizes a URL (trimmed, lowercased) and hashes it for the
// run-wide dedup set.
func urlHash(u string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(u))))
	return hex.EncodeToString(h[:])
}
