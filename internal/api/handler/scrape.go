package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vadymuxd/searching-the-fox/internal/repository"
	"github.com/vadymuxd/searching-the-fox/internal/service"
	"gorm.io/gorm"
)

// ScrapeHandler handles ingestion run endpoints.
type ScrapeHandler struct {
	pipeline *service.Pipeline
	runs     *repository.RunRepository
}

// NewScrapeHandler creates a new scrape handler.
// Parameters:
//   - pipeline: ingestion pipeline instance.
//   - runs: run repository for status lookups.
// Returns:
//   - *ScrapeHandler: initialized handler.
func NewScrapeHandler(pipeline *service.Pipeline, runs *repository.RunRepository) *ScrapeHandler {
	return &ScrapeHandler{pipeline: pipeline, runs: runs}
}

// Scrape handles POST /api/v1/scrape.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScrapeHandler) Scrape(c *gin.Context) {
	var req service.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Scrape run failed: " + err.Error(),
		})
		return
	}

	status := http.StatusOK
	if result.Outcome == service.OutcomeFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// GetRun handles GET /api/v1/runs/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScrapeHandler) GetRun(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get run: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, run)
}

// PollQueue handles POST /api/v1/queue/poll.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScrapeHandler) PollQueue(c *gin.Context) {
	var req struct {
		BatchSize int `json:"batch_size"`
	}
	// Body is optional; an empty poll uses the configured batch size.
	_ = c.ShouldBindJSON(&req)

	results, err := h.pipeline.ProcessQueued(c.Request.Context(), req.BatchSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Queue poll failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"processed": len(results),
		"results":   results,
	})
}

// CleanupRuns handles POST /api/v1/runs/cleanup.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScrapeHandler) CleanupRuns(c *gin.Context) {
	swept, err := h.pipeline.CleanupStuckRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Cleanup failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleaned_up": swept})
}
