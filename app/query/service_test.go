package query

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"newslens/app/article"
)

func TestService_Load_CoercesAndDedupesFullRows(t *testing.T) {
	dir := t.TempDir()

	// Same row in two tables; plus one row differing only in date
	rssCSV := "title,body,language,date,source,url\n" +
		"A,b,English,2024-03-01T00:00:00Z,s,https://example.com/1\n"
	htmlCSV := "title,body,language,date,source,url\n" +
		"A,b,English,2024-03-01T00:00:00Z,s,https://example.com/1\n" +
		"A,b,English,2024-03-02T00:00:00Z,s,https://example.com/1\n"
	os.WriteFile(filepath.Join(dir, "articles_rss.csv"), []byte(rssCSV), 0644)
	os.WriteFile(filepath.Join(dir, "articles_html.csv"), []byte(htmlCSV), 0644)
	os.WriteFile(filepath.Join(dir, "partial.csv"), []byte("title,url\nP,https://example.com/2\n"), 0644)

	svc := NewService(dir)
	rows, infos := svc.Load()

	// 2 distinct full rows for /1 (URL dedup would keep one) + the partial row
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows after full-row dedup, got %d", len(rows))
	}
	if len(infos) != 3 {
		t.Errorf("Expected 3 table infos, got %d", len(infos))
	}

	var partial article.Article
	for _, r := range rows {
		if r.Title == "P" {
			partial = r
		}
	}
	if partial.URL != "https://example.com/2" || partial.Language != "" {
		t.Errorf("Partial table not coerced: %+v", partial)
	}
}

func TestService_Load_EmptyDir(t *testing.T) {
	svc := NewService(t.TempDir())
	rows, infos := svc.Load()
	if len(rows) != 0 || len(infos) != 0 {
		t.Errorf("Expected nothing from empty dir, got %d rows, %d infos", len(rows), len(infos))
	}
}

func TestApply_Filters(t *testing.T) {
	rows := []article.Article{
		{Title: "Markets rally", Body: "Stocks up", Language: "English", Source: "bbc.com"},
		{Title: "Выборы", Body: "события дня", Language: "Russian", Source: "meduza.io"},
		{Title: "Weather", Body: "rally of storms", Language: "English", Source: "cnn.com"},
	}

	got := Apply(rows, Filter{Query: "RALLY"})
	if len(got) != 2 {
		t.Errorf("Free-text filter should match title or body case-insensitively, got %d", len(got))
	}

	got = Apply(rows, Filter{Language: "russian"})
	if len(got) != 1 || got[0].Source != "meduza.io" {
		t.Errorf("Language filter should match exactly, case-insensitively: %+v", got)
	}

	got = Apply(rows, Filter{Language: "All", Source: "All", Query: ""})
	if len(got) != 3 {
		t.Errorf("All sentinel must disable filters, got %d", len(got))
	}

	got = Apply(rows, Filter{Source: "BBC"})
	if len(got) != 1 || got[0].Source != "bbc.com" {
		t.Errorf("Source filter should substring-match case-insensitively: %+v", got)
	}
}

func TestApplyDateWindow(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := []article.Article{
		{Title: "Excluded", Date: "2024-01-02T23:59:59Z"},
		{Title: "Included", Date: "2024-01-03T00:00:01Z"},
		{Title: "Unparsable", Date: "not a date"},
		{Title: "Empty", Date: ""},
	}

	got := ApplyDateWindow(rows, "7d", now)
	if len(got) != 1 || got[0].Title != "Included" {
		t.Errorf("7d window from 2024-01-10 should keep only the 2024-01-03 row: %+v", got)
	}

	got = ApplyDateWindow(rows, "", now)
	if len(got) != 4 {
		t.Errorf("Empty date key must disable the window, got %d", len(got))
	}

	got = ApplyDateWindow(rows, "bogus", now)
	if len(got) != 4 {
		t.Errorf("Unrecognized date key must disable the window, got %d", len(got))
	}
}

func TestApplyDateWindow_Today(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	rows := []article.Article{
		{Title: "Today", Date: "2024-01-10T00:00:00Z"},
		{Title: "Yesterday", Date: "2024-01-09T23:59:59Z"},
	}

	got := ApplyDateWindow(rows, "today", now)
	if len(got) != 1 || got[0].Title != "Today" {
		t.Errorf("today window should start at UTC midnight: %+v", got)
	}
}

func TestPaginate(t *testing.T) {
	rows := make([]article.Article, 30)
	for i := range rows {
		rows[i].Title = fmt.Sprintf("item-%d", i)
	}

	page1 := Paginate(rows, 1)
	if len(page1) != PageSize || page1[0].Title != "item-0" {
		t.Errorf("Page 1 = %d rows starting at %q", len(page1), page1[0].Title)
	}

	page2 := Paginate(rows, 2)
	if len(page2) != 6 || page2[0].Title != "item-24" {
		t.Errorf("Page 2 = %d rows starting at %q", len(page2), page2[0].Title)
	}

	if got := Paginate(rows, 3); len(got) != 0 {
		t.Errorf("Past-the-end page should be empty, got %d", len(got))
	}
	if got := Paginate(rows, 0); len(got) != PageSize {
		t.Errorf("Page below 1 should clamp to page 1, got %d", len(got))
	}
}

func TestVolumeByDay(t *testing.T) {
	rows := []article.Article{
		{Date: "2024-03-02T10:00:00Z"},
		{Date: "2024-03-01T09:00:00Z"},
		{Date: "2024-03-02T23:00:00Z"},
		{Date: "broken"},
		{Date: ""},
	}

	got := VolumeByDay(rows)
	if len(got) != 2 {
		t.Fatalf("Expected 2 day buckets, got %d", len(got))
	}
	if got[0].Date != "2024-03-01" || got[0].Count != 1 {
		t.Errorf("First bucket = %+v", got[0])
	}
	if got[1].Date != "2024-03-02" || got[1].Count != 2 {
		t.Errorf("Second bucket = %+v", got[1])
	}
}

func TestCountByLanguageAndTopSources(t *testing.T) {
	rows := []article.Article{
		{Language: "English", Source: "bbc.com"},
		{Language: "English", Source: "bbc.com"},
		{Language: "Russian", Source: "meduza.io"},
		{Language: "", Source: ""},
	}

	langs := CountByLanguage(rows)
	if langs[0].Label != "English" || langs[0].Count != 2 {
		t.Errorf("Top language = %+v", langs[0])
	}
	foundUnknown := false
	for _, p := range langs {
		if p.Label == "Unknown" && p.Count == 1 {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Errorf("Empty language should count as Unknown: %+v", langs)
	}

	top := TopSources(rows, 1)
	if len(top) != 1 || top[0].Label != "bbc.com" || top[0].Count != 2 {
		t.Errorf("TopSources(1) = %+v", top)
	}
}

func TestFacets(t *testing.T) {
	rows := []article.Article{
		{Language: "Russian"},
		{Language: "English"},
		{Language: "English"},
		{Language: ""},
	}

	got := Facets(rows, func(a article.Article) string { return a.Language })
	want := []string{"All", "English", "Russian"}
	if len(got) != len(want) {
		t.Fatalf("Facets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Facets[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExportCSV(t *testing.T) {
	rows := []article.Article{
		{Title: "A", Body: "b", Language: "English", Date: "2024-03-01T00:00:00Z", Source: "s", URL: "https://example.com/1"},
	}

	data, err := ExportCSV(rows)
	if err != nil {
		t.Fatalf("ExportCSV returned error: %v", err)
	}
	want := "title,body,language,date,source,url\nA,b,English,2024-03-01T00:00:00Z,s,https://example.com/1\n"
	if string(data) != want {
		t.Errorf("ExportCSV = %q", string(data))
	}
}
