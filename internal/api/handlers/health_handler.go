package handlers

import (
	"net/http"

	"example.com/tripplanner/internal/search"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports process liveness and dependency health
type HealthHandler struct {
	elastic *search.ElasticClient
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(elastic *search.ElasticClient) *HealthHandler {
	return &HealthHandler{elastic: elastic}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{"status": "ok"}

	if h.elastic != nil {
		if err := h.elastic.Healthcheck(c.Request.Context()); err != nil {
			status["search"] = "unavailable"
		} else {
			status["search"] = "ok"
		}
	}

	c.JSON(http.StatusOK, status)
}
