package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/runner"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RunService is what the handlers need from the orchestrator.
type RunService interface {
	Start(ctx context.Context, family models.Family, kind models.RunKind) (*models.MigrationRun, error)
	Cancel(runID string) bool
	Get(ctx context.Context, runID string) (*models.MigrationRun, error)
	Recent(ctx context.Context, limit int) ([]*models.MigrationRun, error)
	MappedCounts(ctx context.Context) (map[models.Family]int, error)
}

// RunHandler exposes migration runs over HTTP
type RunHandler struct {
	runs RunService
	log  zerolog.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunService, log zerolog.Logger) *RunHandler {
	return &RunHandler{
		runs: runs,
		log:  log.With().Str("handler", "runs").Logger(),
	}
}

// StartRun handles POST /v1/migrations
func (h *RunHandler) StartRun(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	run, err := h.runs.Start(c.Request.Context(), req.Family, req.Kind)
	if err != nil {
		if errors.Is(err, runner.ErrFamilyBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// StartRollback handles POST /v1/rollbacks
func (h *RunHandler) StartRollback(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	run, err := h.runs.Start(c.Request.Context(), req.Family, models.RunKindRollback)
	if err != nil {
		if errors.Is(err, runner.ErrFamilyBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// GetRun handles GET /v1/migrations/:run_id
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRuns handles GET /v1/migrations
func (h *RunHandler) ListRuns(c *gin.Context) {
	runs, err := h.runs.Recent(c.Request.Context(), 50)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// CancelRun handles DELETE /v1/migrations/:run_id
func (h *RunHandler) CancelRun(c *gin.Context) {
	runID := c.Param("run_id")
	if !h.runs.Cancel(runID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run in flight with that id"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "status": "cancelling"})
}

// Families handles GET /v1/families
func (h *RunHandler) Families(c *gin.Context) {
	counts, err := h.runs.MappedCounts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count mappings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"families": counts})
}

// Metrics handles GET /metrics
func (h *RunHandler) Metrics(c *gin.Context) {
	counts, err := h.runs.MappedCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mappings":  counts,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
