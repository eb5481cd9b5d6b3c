// Package handlers adapts HTTP requests to the domain services.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is implemented by both storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// readyTimeout bounds the storage ping of the readiness probe.
const readyTimeout = 2 * time.Second

type HealthHandler struct {
	pinger  Pinger
	storage string
	version string
	started time.Time
}

func NewHealthHandler(pinger Pinger, storage, version string) *HealthHandler {
	return &HealthHandler{
		pinger:  pinger,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

// Live answers as long as the process serves HTTP.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings the storage backend. The till should stop sending sales
// while this returns 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	started := time.Now()
	err := h.pinger.Ping(ctx)
	check := gin.H{
		"backend":    h.storage,
		"latency_ms": time.Since(started).Milliseconds(),
	}

	if err != nil {
		check["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": check})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": check})
}

func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":            "pharmapos",
		"version":        h.version,
		"storage":        h.storage,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}
