package handlers

import (
	"net/http"

	"example.com/tripplanner/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsHandler exposes the in-process metrics snapshot
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(collector *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: collector}
}

// Metrics handles GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Collect())
}
