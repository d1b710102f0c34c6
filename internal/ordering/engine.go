// Package ordering enforces the per-(trip, day) order contract for
// itinerary items. Three mutation protocols exist with deliberately
// different guarantees: batch reorder (explicit indices, atomic, strict
// trip check), day rewrite (authoritative contiguous renumbering of one
// day) and move-to-day (single-row write, no renumbering of either day).
package ordering

import (
	"context"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Engine implements the reordering protocols on top of the item store
type Engine struct {
	repo repositories.ItineraryRepository
}

// NewEngine creates a new ordering engine
func NewEngine(repo repositories.ItineraryRepository) *Engine {
	return &Engine{repo: repo}
}

// loadBatch resolves the items behind a set of ids and requires every one
// of them to exist and to belong to tripID. Any miss rejects the whole
// batch before a single write happens.
func (e *Engine) loadBatch(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.ItineraryItem, error) {
	items, err := e.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.ItineraryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(apperrors.ErrItemsNotFound, "itinerary item %s", id)
		}
		if item.TripID != tripID {
			// Every item in a batch must resolve to the authorized trip
			return nil, errors.Wrapf(apperrors.ErrItemsNotFound, "itinerary item %s does not belong to trip %s", id, tripID)
		}
	}

	return byID, nil
}

// ReorderBatch applies caller-supplied order indices to an arbitrary set
// of items of one trip. All referenced items must exist; the write is
// all-or-nothing. Day consistency is not validated here: the caller is
// trusted to supply indices that fit whatever day each item occupies.
func (e *Engine) ReorderBatch(ctx context.Context, tripID uuid.UUID, updates []repositories.OrderUpdate) error {
	if len(updates) == 0 {
		return apperrors.Validationf("items", "reorder batch must not be empty")
	}

	ids := make([]uuid.UUID, 0, len(updates))
	for _, u := range updates {
		if u.OrderIndex < 1 {
			return apperrors.Validationf("order_index", "must be a positive integer")
		}
		ids = append(ids, u.ID)
	}

	if _, err := e.loadBatch(ctx, tripID, ids); err != nil {
		return err
	}

	// The batch update re-verifies row existence inside its transaction,
	// so a delete racing this call rolls the whole batch back.
	return e.repo.UpdateOrderBatch(ctx, updates)
}

// RewriteDay replaces the ordering of one trip-day with the submitted
// sequence, assigning contiguous 1-based order indices. After it returns,
// re-reading the day yields the items in exactly the submitted order.
func (e *Engine) RewriteDay(ctx context.Context, tripID uuid.UUID, day int, orderedIDs []uuid.UUID) ([]models.ItineraryItemView, error) {
	if day < 1 {
		return nil, apperrors.Validationf("day_number", "must be a positive integer")
	}
	if len(orderedIDs) == 0 {
		return nil, apperrors.Validationf("items", "day rewrite must not be empty")
	}

	if _, err := e.loadBatch(ctx, tripID, orderedIDs); err != nil {
		return nil, err
	}

	updates := make([]repositories.OrderUpdate, len(orderedIDs))
	for i, id := range orderedIDs {
		updates[i] = repositories.OrderUpdate{ID: id, OrderIndex: i + 1}
	}

	if err := e.repo.UpdateOrderBatch(ctx, updates); err != nil {
		return nil, err
	}

	return e.repo.FindByTripAndDay(ctx, tripID, day)
}

// MoveToDay relocates a single item to (day, orderIndex) with one row
// write. Neither the vacated day nor the destination day is renumbered;
// callers wanting contiguity on both sides follow up with RewriteDay. An
// orderIndex of 0 means unplaced / end of day.
func (e *Engine) MoveToDay(ctx context.Context, itemID uuid.UUID, day, orderIndex int) (*models.ItineraryItemView, error) {
	if day < 1 {
		return nil, apperrors.Validationf("day_number", "must be a positive integer")
	}
	if orderIndex < 0 {
		return nil, apperrors.Validationf("order_index", "must not be negative")
	}

	if err := e.repo.MoveToDay(ctx, itemID, day, orderIndex); err != nil {
		return nil, err
	}

	return e.repo.FindByID(ctx, itemID)
}
