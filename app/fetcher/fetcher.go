package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"newslens/app/sources"
)

const delayJitter = 0.8 // seconds, added on top of the base delay

// Fetcher retrieves one HTML page per source (usually the homepage) and
// writes the raw artifact, a sidecar meta file, and a manifest row per
// attempt. Sources are fetched one at a time; one failure never aborts the
// remaining sources.
type Fetcher struct {
	httpClient   *http.Client
	rawDir       string
	userAgent    string
	delay        time.Duration
	ignoreRobots bool

	robotsCache map[string]*robotstxt.RobotsData
}

func NewFetcher(httpClient *http.Client, rawDir, userAgent string, delay time.Duration, ignoreRobots bool) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		rawDir:       rawDir,
		userAgent:    userAgent,
		delay:        delay,
		ignoreRobots: ignoreRobots,
		robotsCache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Run fetches every source in order. Returns the number of pages fetched
// successfully.
func (f *Fetcher) Run(ctx context.Context, srcs []sources.Source) (int, error) {
	if err := os.MkdirAll(f.rawDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create raw directory: %w", err)
	}

	manifestPath := filepath.Join(f.rawDir, "_manifest.csv")
	okCount := 0

	for i, src := range srcs {
		select {
		case <-ctx.Done():
			return okCount, ctx.Err()
		default:
		}

		row := ManifestRow{
			Name:      src.Name,
			URL:       src.URL,
			Language:  src.Language,
			Group:     src.Group,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		switch f.fetchOne(ctx, src, &row) {
		case StatusOK:
			okCount++
			slog.Info("Page fetched", "source", src.Name, "path", row.Path, "http_status", row.HTTPStatus)
		case StatusBlockedByRobots:
			slog.Warn("Fetch blocked by robots.txt", "source", src.Name, "url", src.URL)
		case StatusSkipInvalidURL:
			slog.Warn("Invalid source URL, skipping", "source", src.Name, "url", src.URL)
		default:
			slog.Warn("Fetch failed, skipping source", "source", src.Name, "url", src.URL)
		}

		if err := AppendManifestRow(manifestPath, row); err != nil {
			slog.Error("Failed to append manifest row", "source", src.Name, "error", err)
		}

		if i < len(srcs)-1 {
			f.politenessDelay(ctx)
		}
	}

	return okCount, nil
}

// fetchOne performs a single attempt and fills the manifest row. The
// returned value is the manifest status.
func (f *Fetcher) fetchOne(ctx context.Context, src sources.Source, row *ManifestRow) string {
	pageURL := strings.TrimSpace(src.URL)

	if !strings.HasPrefix(pageURL, "http") {
		row.Status = StatusSkipInvalidURL
		return row.Status
	}

	if !f.ignoreRobots && !f.robotsAllow(ctx, pageURL) {
		row.Status = StatusBlockedByRobots
		return row.Status
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		row.Status = StatusError
		return row.Status
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		row.Status = StatusError
		return row.Status
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		row.Status = StatusError
		return row.Status
	}

	outPath := filepath.Join(f.rawDir, SafeFilename(pageURL))
	if err := os.WriteFile(outPath, body, 0644); err != nil {
		slog.Error("Failed to write raw page", "source", src.Name, "path", outPath, "error", err)
		row.Status = StatusError
		return row.Status
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	meta := PageMeta{
		Source:       src,
		RequestedURL: pageURL,
		FinalURL:     finalURL,
		StatusCode:   resp.StatusCode,
		FetchedAt:    row.Timestamp,
		Headers:      headers,
	}
	if err := WritePageMeta(outPath, meta); err != nil {
		slog.Error("Failed to write page meta", "source", src.Name, "error", err)
	}

	row.Status = StatusOK
	row.HTTPStatus = strconv.Itoa(resp.StatusCode)
	row.Path = outPath
	row.FinalURL = finalURL
	return row.Status
}

// robotsAllow checks the host's robots.txt, caching the parsed policy per
// host for the duration of the run. An unreachable robots.txt disallows the
// fetch (fail closed).
func (f *Fetcher) robotsAllow(ctx context.Context, pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	robots, ok := f.robotsCache[u.Host]
	if !ok {
		robots = f.fetchRobots(ctx, u)
		f.robotsCache[u.Host] = robots
	}
	if robots == nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return robots.FindGroup(f.userAgent).Test(path)
}

func (f *Fetcher) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, "GET", robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		slog.Debug("robots.txt unreachable, failing closed", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		slog.Debug("robots.txt unparsable, failing closed", "url", robotsURL, "error", err)
		return nil
	}
	return robots
}

// politenessDelay sleeps the base delay plus bounded random jitter between
// requests. Purely for politeness toward remote servers.
func (f *Fetcher) politenessDelay(ctx context.Context) {
	if f.delay <= 0 {
		return
	}
	jitter := time.Duration(rand.Float64() * delayJitter * float64(time.Second))
	select {
	case <-time.After(f.delay + jitter):
	case <-ctx.Done():
	}
}

// SafeFilename maps a page URL to its raw artifact filename: the hostname
// with ":" replaced, plus ".html".
func SafeFilename(pageURL string) string {
	u, err := url.Parse(pageURL)
	host := ""
	if err == nil {
		host = u.Host
	}
	if host == "" {
		host = "unknown"
	}
	return strings.ReplaceAll(host, ":", "_") + ".html"
}
