package handlers

import (
	"net/http"
	"time"

	"example.com/tripplanner/internal/api/middleware"
	"example.com/tripplanner/internal/services"

	"github.com/gin-gonic/gin"
)

// TripHandler handles trip HTTP requests
type TripHandler struct {
	tripService *services.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *services.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripRequest represents an incoming trip create request
type TripRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsPublic    bool       `json:"is_public"`
}

// CreateTrip handles POST /trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), middleware.CallerFromContext(c), services.TripInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// GetTrip handles GET /trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	trip, err := h.tripService.Get(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// ListTrips handles GET /trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	trips, err := h.tripService.List(c.Request.Context(), middleware.CallerFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// DeleteTrip handles DELETE /trips/:id
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.tripService.Delete(c.Request.Context(), middleware.CallerFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the handler's routes on a binding group
func (h *TripHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/trips", h.CreateTrip)
	group.GET("/trips", h.ListTrips)
	group.GET("/trips/:id", h.GetTrip)
	group.DELETE("/trips/:id", h.DeleteTrip)
}
