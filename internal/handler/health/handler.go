package health

import (
	"net/http"

	"github.com/TomasB/geolocate/internal/data"
	"github.com/gin-gonic/gin"
)

// TablesSource provides the tables currently being served.
type TablesSource interface {
	Load() *data.Tables
}

// Handler manages health check endpoints
type Handler struct {
	tables TablesSource
}

// NewHandler creates a new health check handler. The service is ready once
// tables returns a non-nil value.
func NewHandler(tables TablesSource) *Handler {
	return &Handler{tables: tables}
}

// Register adds the liveness and readiness routes to r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Health is the liveness probe endpoint
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready is the readiness probe endpoint. It also reports the size of the
// loaded tables.
// GET /ready
func (h *Handler) Ready(c *gin.Context) {
	t := h.tables.Load()
	if t == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  data.ErrNotLoaded.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"ipv4_blocks": t.V4.Len(),
		"ipv6_blocks": t.V6.Len(),
		"countries":   t.Countries.Len(),
	})
}
