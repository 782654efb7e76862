package scrape

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxBlockText  = 20000 // per-candidate text cap, bounds memory
	maxCandidates = 10
)

// Structural selectors tried in priority order: semantic containers first,
// then generic sectioning and container elements.
var blockSelectors = []string{"main", "article", "[role='main']", "section", "div"}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Scorer turns raw HTML pages into ranked candidate block lists, one JSONL
// file per page.
type Scorer struct {
	rawDir     string
	interimDir string
}

func NewScorer(rawDir, interimDir string) *Scorer {
	return &Scorer{rawDir: rawDir, interimDir: interimDir}
}

// Run scores every *.html file under the raw directory and writes the
// candidate JSONL next to it under the interim directory. Returns the
// number of pages processed.
func (s *Scorer) Run() (int, error) {
	pages, err := filepath.Glob(filepath.Join(s.rawDir, "*.html"))
	if err != nil {
		return 0, fmt.Errorf("failed to list raw pages: %w", err)
	}
	sort.Strings(pages)

	if err := os.MkdirAll(s.interimDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create interim directory: %w", err)
	}

	processed := 0
	for _, page := range pages {
		outPath := filepath.Join(s.interimDir, filepath.Base(page)+".jsonl")
		if err := s.scorePage(page, outPath); err != nil {
			slog.Warn("Failed to score page", "page", page, "error", err)
			continue
		}
		processed++
	}

	return processed, nil
}

func (s *Scorer) scorePage(htmlPath, outPath string) error {
	f, err := os.Open(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	candidates, err := ScoreDocument(f)
	if err != nil {
		return err
	}

	return WriteCandidates(outPath, candidates)
}

// ScoreDocument enumerates candidate content regions of one HTML document
// and returns the top candidates ranked by (p_count, length) descending,
// ties broken by scan order. Malformed HTML parses best-effort; a page
// without usable blocks yields an empty list, not an error.
func ScoreDocument(r io.Reader) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	meta := CandidateMeta{TitleGuess: guessTitle(doc)}

	var candidates []Candidate
	for _, sel := range blockSelectors {
		doc.Find(sel).Each(func(_ int, el *goquery.Selection) {
			text := collapseWhitespace(el.Text())
			if text == "" {
				return
			}
			runes := []rune(text)
			length := len(runes)
			if length > maxBlockText {
				runes = runes[:maxBlockText]
			}
			candidates = append(candidates, Candidate{
				Meta: meta,
				Block: Block{
					Selector: sel,
					Length:   length,
					PCount:   el.Find("p").Length(),
					Text:     string(runes),
				},
			})
		})
	}

	RankCandidates(candidates)
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates, nil
}

// RankCandidates sorts in place by (p_count, length) descending. The sort
// is stable so candidates with equal scores keep their scan order.
func RankCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Block, candidates[j].Block
		if a.PCount != b.PCount {
			return a.PCount > b.PCount
		}
		return a.Length > b.Length
	})
}

func guessTitle(doc *goquery.Document) string {
	if title := collapseWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return collapseWhitespace(doc.Find("h1").First().Text())
}

// WriteCandidates serializes candidates as JSON lines.
func WriteCandidates(path string, candidates []Candidate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create candidate file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range candidates {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to encode candidate: %w", err)
		}
	}
	return w.Flush()
}

// ReadCandidates loads a candidate JSONL file. Unparsable lines are
// skipped, not errored.
func ReadCandidates(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate file: %w", err)
	}
	defer f.Close()

	var out []Candidate
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c Candidate
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan candidate file: %w", err)
	}
	return out, nil
}
