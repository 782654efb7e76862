package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newslens/app/query"
	"newslens/app/tasks"
)

// MockScheduler implements a simple mock for testing
type MockScheduler struct {
	publishRuns int
}

var _ tasks.TaskSchedulerInterface = (*MockScheduler)(nil)

func (m *MockScheduler) Start() {}

func (m *MockScheduler) Stop() {}

func (m *MockScheduler) EnqueueTask(task tasks.TaskInterface) error {
	return nil
}

func (m *MockScheduler) EnqueuePublishRun() {
	m.publishRuns++
}

func newTestRouter(t *testing.T, apiAccessKey string) (http.Handler, *MockScheduler) {
	t.Helper()

	dir := t.TempDir()
	table := "title,body,language,date,source,url\n" +
		"Border talks resume,Officials met again,English,2024-03-02T10:00:00Z,example.com,https://example.com/talks\n" +
		"Rains flood capital,Streets underwater,English,2024-03-01T08:00:00Z,example.com,https://example.com/floods\n" +
		"Срочные новости,Подробности позже,Russian,2024-03-02T12:00:00Z,rbc.ru,https://rbc.ru/urgent\n"
	if err := os.WriteFile(filepath.Join(dir, "articles.csv"), []byte(table), 0644); err != nil {
		t.Fatal(err)
	}

	scheduler := &MockScheduler{}
	handler := NewHandler(query.NewService(dir), scheduler, 5, "test")
	return NewServer(handler, apiAccessKey), scheduler
}

func doRequest(t *testing.T, router http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetArticles(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/api/articles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
		Total   int `json:"total"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
		Facets  struct {
			Languages []string `json:"languages"`
			Sources   []string `json:"sources"`
		} `json:"facets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Total != 3 {
		t.Errorf("Expected total 3, got %d", resp.Total)
	}
	if resp.Page != 1 || resp.PerPage != query.PageSize {
		t.Errorf("Expected page 1 per_page %d, got %d/%d", query.PageSize, resp.Page, resp.PerPage)
	}
	if len(resp.Items) != 3 {
		t.Errorf("Expected 3 items, got %d", len(resp.Items))
	}

	wantLangs := []string{"All", "English", "Russian"}
	if len(resp.Facets.Languages) != len(wantLangs) {
		t.Fatalf("Expected languages %v, got %v", wantLangs, resp.Facets.Languages)
	}
	for i, lang := range wantLangs {
		if resp.Facets.Languages[i] != lang {
			t.Errorf("Expected language facet %q at %d, got %q", lang, i, resp.Facets.Languages[i])
		}
	}
}

func TestGetArticlesFiltered(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/api/articles?language=russian", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Total  int `json:"total"`
		Facets struct {
			Languages []string `json:"languages"`
		} `json:"facets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Total != 1 {
		t.Errorf("Expected total 1, got %d", resp.Total)
	}

	// Facets come from the date-windowed set, so the language filter must
	// not narrow them.
	if len(resp.Facets.Languages) != 3 {
		t.Errorf("Expected 3 language facets, got %v", resp.Facets.Languages)
	}
}

func TestGetArticlesQuerySearch(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/api/articles?q=flood", nil)

	var resp struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Total != 1 {
		t.Fatalf("Expected total 1, got %d", resp.Total)
	}
	if resp.Items[0].Title != "Rains flood capital" {
		t.Errorf("Expected flood article, got %q", resp.Items[0].Title)
	}
}

func TestGetVolumeMetrics(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/api/metrics/volume", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Points []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"points"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Points) != 2 {
		t.Fatalf("Expected 2 volume points, got %d", len(resp.Points))
	}
	if resp.Points[0].Date != "2024-03-01" || resp.Points[0].Count != 1 {
		t.Errorf("Unexpected first point: %+v", resp.Points[0])
	}
	if resp.Points[1].Date != "2024-03-02" || resp.Points[1].Count != 2 {
		t.Errorf("Unexpected second point: %+v", resp.Points[1])
	}
}

func TestGetSourceMetricsTopParam(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/api/metrics/sources?top=1", nil)

	var resp struct {
		Counts []struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Counts) != 1 {
		t.Fatalf("Expected 1 source count, got %d", len(resp.Counts))
	}
	if resp.Counts[0].Label != "example.com" || resp.Counts[0].Count != 2 {
		t.Errorf("Unexpected top source: %+v", resp.Counts[0])
	}
}

func TestExportCSV(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/export.csv?language=Russian", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Expected attachment disposition, got %q", cd)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "title,body,language,date,source,url\n") {
		t.Errorf("Expected canonical header, got %q", body)
	}
	if !strings.Contains(body, "rbc.ru") || strings.Contains(body, "example.com") {
		t.Errorf("Expected only Russian rows in export, got %q", body)
	}
}

func TestGetHealth(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
	if resp["rows"] != float64(3) {
		t.Errorf("Expected 3 rows, got %v", resp["rows"])
	}
}

func TestGetStats(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/stats", nil)

	var resp struct {
		Tables []struct {
			Path string `json:"path"`
			Rows int    `json:"rows"`
		} `json:"tables"`
		TotalRows int `json:"total_rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(resp.Tables))
	}
	if resp.Tables[0].Rows != 3 || resp.TotalRows != 3 {
		t.Errorf("Unexpected stats: %+v total %d", resp.Tables[0], resp.TotalRows)
	}
}

func TestRefreshRequiresAPIKey(t *testing.T) {
	router, scheduler := newTestRouter(t, "secret")

	w := doRequest(t, router, "POST", "/api/refresh", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = doRequest(t, router, "POST", "/api/refresh", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}
	if scheduler.publishRuns != 0 {
		t.Errorf("Expected no publish runs, got %d", scheduler.publishRuns)
	}

	w = doRequest(t, router, "POST", "/api/refresh", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202 with valid key, got %d", w.Code)
	}
	if scheduler.publishRuns != 1 {
		t.Errorf("Expected 1 publish run, got %d", scheduler.publishRuns)
	}
}

func TestRefreshBearerToken(t *testing.T) {
	router, scheduler := newTestRouter(t, "secret")

	w := doRequest(t, router, "POST", "/api/refresh", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202 with bearer token, got %d", w.Code)
	}
	if scheduler.publishRuns != 1 {
		t.Errorf("Expected 1 publish run, got %d", scheduler.publishRuns)
	}
}

func TestRefreshDisabledWithoutKey(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "POST", "/api/refresh", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when refresh disabled, got %d", w.Code)
	}
}

func TestFaviconReturnsNoContent(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/favicon.ico", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
}

func TestRootServiceInfo(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doRequest(t, router, "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["service"] != "NewsLens" {
		t.Errorf("Expected service name, got %v", resp["service"])
	}
	if resp["version"] != "test" {
		t.Errorf("Expected version test, got %v", resp["version"])
	}
}
