package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/storage"
)

const (
	defaultGenerationsLimit = 20
	maxGenerationsLimit     = 100
)

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	generations storage.GenerationRepository
	logger      *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(generations storage.GenerationRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		generations: generations,
		logger:      logger,
	}
}

// Stats returns provider call counts.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.generations.Count(ctx)
	if err != nil {
		h.logger.Error("counting generations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	succeeded, err := h.generations.CountBySuccess(ctx, true)
	if err != nil {
		h.logger.Error("counting successful generations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"succeeded": succeeded,
		"failed":    total - succeeded,
	})
}

// Generations lists the most recent provider calls.
// Route: GET /api/v1/admin/generations?limit=20
func (h *AdminHandler) Generations(c *gin.Context) {
	limit := defaultGenerationsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxGenerationsLimit)
	}

	rows, err := h.generations.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing generations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generations": rows})
}
