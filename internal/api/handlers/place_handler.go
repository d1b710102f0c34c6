package handlers

import (
	"net/http"
	"strconv"

	"example.com/tripplanner/internal/api/middleware"
	"example.com/tripplanner/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlaceHandler handles place HTTP requests
type PlaceHandler struct {
	placeService *services.PlaceService
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(placeService *services.PlaceService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService}
}

// PlaceRequest represents an incoming place create request
type PlaceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
}

// CreatePlace handles POST /trips/:id/places
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	place, err := h.placeService.Create(c.Request.Context(), middleware.CallerFromContext(c), services.PlaceInput{
		TripID:      tripID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, place)
}

// GetPlace handles GET /places/:id
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	place, err := h.placeService.Get(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, place)
}

// ListPlaces handles GET /trips/:id/places
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	places, err := h.placeService.List(c.Request.Context(), middleware.CallerFromContext(c), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": places})
}

// DeletePlace handles DELETE /places/:id
func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.placeService.Delete(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchPlaces handles GET /places/search?trip_id=...&q=...&limit=...
func (h *PlaceHandler) SearchPlaces(c *gin.Context) {
	tripID, err := uuid.Parse(c.Query("trip_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trip_id must be a valid UUID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	hits, err := h.placeService.Search(c.Request.Context(), middleware.CallerFromContext(c), tripID, c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": hits})
}

// RegisterRoutes registers the handler's routes on a binding group
func (h *PlaceHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/trips/:id/places", h.CreatePlace)
	group.GET("/trips/:id/places", h.ListPlaces)
	group.GET("/places/search", h.SearchPlaces)
	group.GET("/places/:id", h.GetPlace)
	group.DELETE("/places/:id", h.DeletePlace)
}
