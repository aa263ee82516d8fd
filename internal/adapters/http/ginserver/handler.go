package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/resquewatch/internal/ports"
)

// Handler exposes the sampler health endpoints.
type Handler struct {
	svc ports.StatusService
}

// NewHandler wires a status service into a gin-compatible HTTP handler.
func NewHandler(svc ports.StatusService) *Handler {
	return &Handler{svc: svc}
}

// Ping proxies `GET /ping` to the Redis health check.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.String(http.StatusServiceUnavailable, "redis ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

// Status handles `GET /status` and returns iteration totals as JSON.
func (h *Handler) Status(c *gin.Context) {
	st, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, st)
}
