package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newslens/app/article"
	"newslens/app/query"
)

func (h *Handler) GetArticles(c *gin.Context) {
	filter := query.Filter{
		Query:    c.Query("q"),
		Language: c.Query("language"),
		Source:   c.Query("source"),
		DateKey:  c.Query("date"),
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	rows, _ := h.svc.Load()

	// Facets and the total universe come from the date-windowed set, so
	// narrowing by language or source never empties the dropdowns.
	windowed := query.ApplyDateWindow(rows, filter.DateKey, time.Now())
	filtered := query.Apply(windowed, filter)
	items := query.Paginate(filtered, page)

	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    len(filtered),
		"page":     page,
		"per_page": query.PageSize,
		"facets": gin.H{
			"languages": query.Facets(windowed, func(a article.Article) string { return a.Language }),
			"sources":   query.Facets(windowed, func(a article.Article) string { return a.Source }),
		},
		"last_updated": h.svc.LastUpdated(rows),
	})
}

func (h *Handler) GetVolumeMetrics(c *gin.Context) {
	rows, _ := h.svc.Load()
	windowed := query.ApplyDateWindow(rows, c.Query("date"), time.Now())

	c.JSON(http.StatusOK, gin.H{
		"points": query.VolumeByDay(windowed),
	})
}

func (h *Handler) GetLanguageMetrics(c *gin.Context) {
	rows, _ := h.svc.Load()
	windowed := query.ApplyDateWindow(rows, c.Query("date"), time.Now())

	c.JSON(http.StatusOK, gin.H{
		"counts": query.CountByLanguage(windowed),
	})
}

func (h *Handler) GetSourceMetrics(c *gin.Context) {
	top := h.topSources
	if raw := c.Query("top"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			top = n
		}
	}

	rows, _ := h.svc.Load()
	windowed := query.ApplyDateWindow(rows, c.Query("date"), time.Now())

	c.JSON(http.StatusOK, gin.H{
		"counts": query.TopSources(windowed, top),
	})
}

// ExportCSV streams the full filtered set, not a page, so a download
// matches what the dashboard shows across all pages.
func (h *Handler) ExportCSV(c *gin.Context) {
	filter := query.Filter{
		Query:    c.Query("q"),
		Language: c.Query("language"),
		Source:   c.Query("source"),
		DateKey:  c.Query("date"),
	}

	rows, _ := h.svc.Load()
	windowed := query.ApplyDateWindow(rows, filter.DateKey, time.Now())
	filtered := query.Apply(windowed, filter)

	data, err := query.ExportCSV(filtered)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render export"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=articles_filtered.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	rows, infos := h.svc.Load()

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"tables":    len(infos),
		"rows":      len(rows),
	}

	if updated := h.svc.LastUpdated(rows); updated != "" {
		health["last_updated"] = updated
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	rows, infos := h.svc.Load()

	c.JSON(http.StatusOK, gin.H{
		"tables":     infos,
		"total_rows": len(rows),
	})
}

func (h *Handler) RefreshPipeline(c *gin.Context) {
	h.scheduler.EnqueuePublishRun()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Pipeline run enqueued",
	})
}
