package services

import (
	"context"
	"time"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/messaging"
	"example.com/tripplanner/internal/metrics"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/ordering"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ItineraryService is the authorization gate and request shaping layer in
// front of the ordering engine and the item store
type ItineraryService struct {
	itemRepo  repositories.ItineraryRepository
	placeRepo repositories.PlaceRepository
	trips     TripAccess
	engine    *ordering.Engine
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	tracer    tracing.Tracer
}

// NewItineraryService creates a new itinerary service
func NewItineraryService(
	itemRepo repositories.ItineraryRepository,
	placeRepo repositories.PlaceRepository,
	trips TripAccess,
	engine *ordering.Engine,
	publisher messaging.Publisher,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *ItineraryService {
	return &ItineraryService{
		itemRepo:  itemRepo,
		placeRepo: placeRepo,
		trips:     trips,
		engine:    engine,
		publisher: publisher,
		metrics:   metricsCollector,
		tracer:    tracer,
	}
}

// ItemInput carries the caller-supplied itinerary item fields
type ItemInput struct {
	TripID      uuid.UUID  `json:"trip_id"`
	PlaceID     *uuid.UUID `json:"place_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	DayNumber   int        `json:"day_number"`
	OrderIndex  int        `json:"order_index"`
	Tags        []string   `json:"tags"`
}

// validateClockRange enforces the canonical start/end rule: both values
// must parse as HH:MM clock times and start must sort strictly before end.
func validateClockRange(start, end string) error {
	if start == "" {
		return apperrors.Validationf("start_time", "is required")
	}
	if end == "" {
		return apperrors.Validationf("end_time", "is required")
	}

	st, err := time.Parse("15:04", start)
	if err != nil {
		return apperrors.Validationf("start_time", "must be a HH:MM clock time")
	}
	et, err := time.Parse("15:04", end)
	if err != nil {
		return apperrors.Validationf("end_time", "must be a HH:MM clock time")
	}

	if !st.Before(et) {
		return apperrors.Validationf("start_time", "must be before end_time")
	}

	return nil
}

func (s *ItineraryService) validateInput(input ItemInput) error {
	if input.Title == "" {
		return apperrors.Validationf("title", "is required")
	}
	if err := validateClockRange(input.StartTime, input.EndTime); err != nil {
		return err
	}
	if input.DayNumber < 1 {
		return apperrors.Validationf("day_number", "must be a positive integer")
	}
	if input.OrderIndex < 1 {
		return apperrors.Validationf("order_index", "must be a positive integer")
	}
	return nil
}

// validatePlaceRef verifies a referenced place belongs to the same trip
func (s *ItineraryService) validatePlaceRef(ctx context.Context, placeID, tripID uuid.UUID) error {
	place, err := s.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validationf("place_id", "place %s does not exist", placeID)
		}
		return err
	}
	if place.TripID != tripID {
		return apperrors.Validationf("place_id", "place %s does not belong to trip %s", placeID, tripID)
	}
	return nil
}

func (s *ItineraryService) publish(ctx context.Context, event messaging.ItineraryEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("type", event.Type).Msg("Failed to publish itinerary event")
	}
}

func (s *ItineraryService) observe(name string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTimer(name, time.Since(start).Milliseconds())
	if err != nil {
		s.metrics.RecordError(name)
	} else {
		s.metrics.RecordSuccess(name)
	}
}

// Create inserts a new itinerary item at the caller-supplied day and order
// slot. The engine does not renumber neighbors on create.
func (s *ItineraryService) Create(ctx context.Context, caller Caller, input ItemInput) (view *models.ItineraryItemView, err error) {
	txn := s.tracer.StartTransaction("itinerary-create")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()
	defer func() { s.observe("itinerary.create", start, err) }()

	if _, err = s.trips.Authorize(ctx, caller, input.TripID, true); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if err = s.validateInput(input); err != nil {
		return nil, err
	}

	if input.PlaceID != nil {
		if err = s.validatePlaceRef(ctx, *input.PlaceID, input.TripID); err != nil {
			return nil, err
		}
	}

	item := &models.ItineraryItem{
		ID:          uuid.New(),
		TripID:      input.TripID,
		PlaceID:     input.PlaceID,
		Title:       input.Title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		DayNumber:   input.DayNumber,
		OrderIndex:  input.OrderIndex,
		Tags:        input.Tags,
	}

	if err = s.itemRepo.Create(ctx, item); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().
		Str("item_id", item.ID.String()).
		Str("trip_id", item.TripID.String()).
		Int("day", item.DayNumber).
		Int("order", item.OrderIndex).
		Msg("Itinerary item created")

	s.publish(ctx, messaging.ItineraryEvent{
		Type:      messaging.EventItemCreated,
		TripID:    item.TripID,
		ItemID:    item.ID,
		DayNumber: item.DayNumber,
	})

	view, err = s.itemRepo.FindByID(ctx, item.ID)
	return view, err
}

// Get returns one item the caller may read
func (s *ItineraryService) Get(ctx context.Context, caller Caller, itemID uuid.UUID) (*models.ItineraryItemView, error) {
	view, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.trips.Authorize(ctx, caller, view.TripID, false); err != nil {
		return nil, err
	}
	return view, nil
}

// ListByTrip returns all items of a trip ordered by (day, order). Reads
// are pure projections; no invariant enforcement happens here.
func (s *ItineraryService) ListByTrip(ctx context.Context, caller Caller, tripID uuid.UUID) ([]models.ItineraryItemView, error) {
	if _, err := s.trips.Authorize(ctx, caller, tripID, false); err != nil {
		return nil, err
	}
	return s.itemRepo.FindByTripID(ctx, tripID)
}

// ListByDay returns one day's items ordered by order index
func (s *ItineraryService) ListByDay(ctx context.Context, caller Caller, tripID uuid.UUID, day int) ([]models.ItineraryItemView, error) {
	if day < 1 {
		return nil, apperrors.Validationf("day_number", "must be a positive integer")
	}
	if _, err := s.trips.Authorize(ctx, caller, tripID, false); err != nil {
		return nil, err
	}
	return s.itemRepo.FindByTripAndDay(ctx, tripID, day)
}

// Update performs a full-record update of an item. The owning trip is
// immutable; a changed place reference is re-validated against it.
func (s *ItineraryService) Update(ctx context.Context, caller Caller, itemID uuid.UUID, input ItemInput) (view *models.ItineraryItemView, err error) {
	txn := s.tracer.StartTransaction("itinerary-update")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()
	defer func() { s.observe("itinerary.update", start, err) }()

	existing, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if _, err = s.trips.Authorize(ctx, caller, existing.TripID, true); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if err = s.validateInput(input); err != nil {
		return nil, err
	}

	if input.PlaceID != nil {
		if err = s.validatePlaceRef(ctx, *input.PlaceID, existing.TripID); err != nil {
			return nil, err
		}
	}

	item := &models.ItineraryItem{
		ID:          itemID,
		TripID:      existing.TripID,
		PlaceID:     input.PlaceID,
		Title:       input.Title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		DayNumber:   input.DayNumber,
		OrderIndex:  input.OrderIndex,
		Tags:        input.Tags,
	}

	if err = s.itemRepo.Update(ctx, item); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	s.publish(ctx, messaging.ItineraryEvent{
		Type:      messaging.EventItemUpdated,
		TripID:    existing.TripID,
		ItemID:    itemID,
		DayNumber: input.DayNumber,
	})

	view, err = s.itemRepo.FindByID(ctx, itemID)
	return view, err
}

// ReorderBatch applies explicit order indices to a set of items. The
// owning trip is resolved from the first item; the engine then requires
// every item in the batch to belong to that same trip.
func (s *ItineraryService) ReorderBatch(ctx context.Context, caller Caller, updates []repositories.OrderUpdate) (err error) {
	txn := s.tracer.StartTransaction("itinerary-reorder-batch")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()
	defer func() { s.observe("itinerary.reorder_batch", start, err) }()

	if len(updates) == 0 {
		return apperrors.Validationf("items", "reorder batch must not be empty")
	}

	first, err := s.itemRepo.FindByID(ctx, updates[0].ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return errors.Wrapf(apperrors.ErrItemsNotFound, "itinerary item %s", updates[0].ID)
		}
		return err
	}

	if _, err = s.trips.Authorize(ctx, caller, first.TripID, true); err != nil {
		s.tracer.RecordError(txn, err)
		return err
	}

	if err = s.engine.ReorderBatch(ctx, first.TripID, updates); err != nil {
		s.tracer.RecordError(txn, err)
		return err
	}

	log.Info().
		Str("trip_id", first.TripID.String()).
		Int("items", len(updates)).
		Msg("Itinerary batch reordered")

	s.publish(ctx, messaging.ItineraryEvent{
		Type:   messaging.EventBatchReorder,
		TripID: first.TripID,
	})

	return nil
}

// RewriteDay replaces one day's ordering with the submitted sequence and
// returns the day as re-read from the store
func (s *ItineraryService) RewriteDay(ctx context.Context, caller Caller, tripID uuid.UUID, day int, orderedIDs []uuid.UUID) (views []models.ItineraryItemView, err error) {
	txn := s.tracer.StartTransaction("itinerary-day-rewrite")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()
	defer func() { s.observe("itinerary.day_rewrite", start, err) }()

	if _, err = s.trips.Authorize(ctx, caller, tripID, true); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	views, err = s.engine.RewriteDay(ctx, tripID, day, orderedIDs)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().
		Str("trip_id", tripID.String()).
		Int("day", day).
		Int("items", len(orderedIDs)).
		Msg("Itinerary day rewritten")

	s.publish(ctx, messaging.ItineraryEvent{
		Type:      messaging.EventDayReordered,
		TripID:    tripID,
		DayNumber: day,
	})

	return views, nil
}

// MoveToDay relocates one item to another day and order slot. Neither the
// vacated nor the destination day is renumbered; callers follow up with
// RewriteDay when both sides must stay gap-free.
func (s *ItineraryService) MoveToDay(ctx context.Context, caller Caller, itemID uuid.UUID, day, orderIndex int) (view *models.ItineraryItemView, err error) {
	txn := s.tracer.StartTransaction("itinerary-move-to-day")
	defer s.tracer.EndTransaction(txn)
	start := time.Now()
	defer func() { s.observe("itinerary.move_to_day", start, err) }()

	existing, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if _, err = s.trips.Authorize(ctx, caller, existing.TripID, true); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	view, err = s.engine.MoveToDay(ctx, itemID, day, orderIndex)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().
		Str("item_id", itemID.String()).
		Str("trip_id", existing.TripID.String()).
		Int("from_day", existing.DayNumber).
		Int("to_day", day).
		Int("order", orderIndex).
		Msg("Itinerary item moved")

	s.publish(ctx, messaging.ItineraryEvent{
		Type:      messaging.EventItemMoved,
		TripID:    existing.TripID,
		ItemID:    itemID,
		DayNumber: day,
	})

	return view, nil
}

// Delete removes one item
func (s *ItineraryService) Delete(ctx context.Context, caller Caller, itemID uuid.UUID) (deleted bool, err error) {
	start := time.Now()
	defer func() { s.observe("itinerary.delete", start, err) }()

	existing, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return false, err
	}

	if _, err = s.trips.Authorize(ctx, caller, existing.TripID, true); err != nil {
		return false, err
	}

	deleted, err = s.itemRepo.Delete(ctx, itemID)
	if err != nil {
		return false, err
	}

	if deleted {
		s.publish(ctx, messaging.ItineraryEvent{
			Type:      messaging.EventItemDeleted,
			TripID:    existing.TripID,
			ItemID:    itemID,
			DayNumber: existing.DayNumber,
		})
	}

	return deleted, nil
}
