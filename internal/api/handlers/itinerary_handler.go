package handlers

import (
	"net/http"

	"example.com/tripplanner/internal/api/middleware"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/services"
	"example.com/tripplanner/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ItineraryHandler handles itinerary item HTTP requests
type ItineraryHandler struct {
	itineraryService *services.ItineraryService
	tracer           tracing.Tracer
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(itineraryService *services.ItineraryService, tracer tracing.Tracer) *ItineraryHandler {
	return &ItineraryHandler{
		itineraryService: itineraryService,
		tracer:           tracer,
	}
}

// ItemRequest represents an incoming itinerary item create or update
type ItemRequest struct {
	TripID      uuid.UUID  `json:"trip_id"`
	PlaceID     *uuid.UUID `json:"place_id"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StartTime   string     `json:"start_time" binding:"required"`
	EndTime     string     `json:"end_time" binding:"required"`
	DayNumber   int        `json:"day_number" binding:"required,min=1"`
	OrderIndex  int        `json:"order_index" binding:"required,min=1"`
	Tags        []string   `json:"tags"`
}

func (r ItemRequest) toInput() services.ItemInput {
	return services.ItemInput{
		TripID:      r.TripID,
		PlaceID:     r.PlaceID,
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		DayNumber:   r.DayNumber,
		OrderIndex:  r.OrderIndex,
		Tags:        r.Tags,
	}
}

// ReorderRequest represents a batch reorder submission
type ReorderRequest struct {
	Items []struct {
		ID         uuid.UUID `json:"id" binding:"required"`
		OrderIndex int       `json:"order_index" binding:"required,min=1"`
	} `json:"items" binding:"required"`
}

// DayRewriteRequest represents a full-day reorder submission
type DayRewriteRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required"`
}

// MoveRequest represents a move-to-day submission. An order index of 0
// parks the item at the end of the day without a slot.
type MoveRequest struct {
	DayNumber  int `json:"day_number" binding:"required,min=1"`
	OrderIndex int `json:"order_index" binding:"min=0"`
}

// CreateItem handles POST /items
func (h *ItineraryHandler) CreateItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-item-create")
	defer h.tracer.EndTransaction(txn)

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Invalid item request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracer.AddAttribute(txn, "trip_id", req.TripID.String())
	h.tracer.AddAttribute(txn, "day_number", req.DayNumber)

	view, err := h.itineraryService.Create(c.Request.Context(), middleware.CallerFromContext(c), req.toInput())
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetItem handles GET /items/:id
func (h *ItineraryHandler) GetItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.itineraryService.Get(c.Request.Context(), middleware.CallerFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateItem handles PUT /items/:id
func (h *ItineraryHandler) UpdateItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-item-update")
	defer h.tracer.EndTransaction(txn)

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.itineraryService.Update(c.Request.Context(), middleware.CallerFromContext(c), id, req.toInput())
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteItem handles DELETE /items/:id
func (h *ItineraryHandler) DeleteItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.itineraryService.Delete(c.Request.Context(), middleware.CallerFromContext(c), id)
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

// ListTripItems handles GET /trips/:id/items
func (h *ItineraryHandler) ListTripItems(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	views, err := h.itineraryService.ListByTrip(c.Request.Context(), middleware.CallerFromContext(c), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// ListDayItems handles GET /trips/:id/days/:day/items
func (h *ItineraryHandler) ListDayItems(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var day struct {
		Day int `uri:"day" binding:"required,min=1"`
	}
	if err := c.ShouldBindUri(&day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be a positive integer"})
		return
	}

	views, err := h.itineraryService.ListByDay(c.Request.Context(), middleware.CallerFromContext(c), tripID, day.Day)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// RewriteDay handles PUT /trips/:id/days/:day/items
func (h *ItineraryHandler) RewriteDay(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-day-rewrite")
	defer h.tracer.EndTransaction(txn)

	tripID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var day struct {
		Day int `uri:"day" binding:"required,min=1"`
	}
	if err := c.ShouldBindUri(&day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be a positive integer"})
		return
	}

	var req DayRewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracer.AddAttribute(txn, "trip_id", tripID.String())
	h.tracer.AddAttribute(txn, "day_number", day.Day)

	views, err := h.itineraryService.RewriteDay(c.Request.Context(), middleware.CallerFromContext(c), tripID, day.Day, req.ItemIDs)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// ReorderItems handles POST /items/reorder
func (h *ItineraryHandler) ReorderItems(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-batch-reorder")
	defer h.tracer.EndTransaction(txn)

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make([]repositories.OrderUpdate, 0, len(req.Items))
	for _, item := range req.Items {
		updates = append(updates, repositories.OrderUpdate{
			ID:         item.ID,
			OrderIndex: item.OrderIndex,
		})
	}

	if err := h.itineraryService.ReorderBatch(c.Request.Context(), middleware.CallerFromContext(c), updates); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "reordered": len(updates)})
}

// MoveItem handles PUT /items/:id/day
func (h *ItineraryHandler) MoveItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-item-move")
	defer h.tracer.EndTransaction(txn)

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.itineraryService.MoveToDay(c.Request.Context(), middleware.CallerFromContext(c), id, req.DayNumber, req.OrderIndex)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// RegisterRoutes registers the handler's routes on a binding group
func (h *ItineraryHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/items", h.CreateItem)
	group.GET("/items/:id", h.GetItem)
	group.PUT("/items/:id", h.UpdateItem)
	group.DELETE("/items/:id", h.DeleteItem)
	group.POST("/items/reorder", h.ReorderItems)
	group.PUT("/items/:id/day", h.MoveItem)
	group.GET("/trips/:id/items", h.ListTripItems)
	group.GET("/trips/:id/days/:day/items", h.ListDayItems)
	group.PUT("/trips/:id/days/:day/items", h.RewriteDay)
}
