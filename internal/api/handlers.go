package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type CategoryStorage interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

type DestinationStorage interface {
	IDs(ctx context.Context) ([]int64, error)
}

// Handler serves the read-only diagnostics endpoints.
type Handler struct {
	categories   CategoryStorage
	destinations DestinationStorage
	logger       *slog.Logger
}

func NewHandler(categories CategoryStorage, destinations DestinationStorage, logger *slog.Logger) *Handler {
	return &Handler{categories: categories, destinations: destinations, logger: logger}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListDestinations(c *gin.Context) {
	ids, err := h.destinations.IDs(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list destinations", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, ids)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categories.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
