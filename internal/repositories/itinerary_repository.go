package repositories

import (
	"context"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OrderUpdate pairs an item id with its new order index for batch updates
type OrderUpdate struct {
	ID         uuid.UUID `json:"id"`
	OrderIndex int       `json:"order_index"`
}

// ItineraryRepository provides durable CRUD for itinerary items. Read
// projections join in denormalized place fields.
type ItineraryRepository interface {
	Create(ctx context.Context, item *models.ItineraryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ItineraryItemView, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ItineraryItem, error)
	FindByTripID(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryItemView, error)
	FindByTripAndDay(ctx context.Context, tripID uuid.UUID, day int) ([]models.ItineraryItemView, error)
	Update(ctx context.Context, item *models.ItineraryItem) error
	UpdateOrderBatch(ctx context.Context, updates []OrderUpdate) error
	MoveToDay(ctx context.Context, id uuid.UUID, day, orderIndex int) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByTripID(ctx context.Context, tripID uuid.UUID) error
}

// itineraryRepository is the GORM implementation of ItineraryRepository
type itineraryRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewItineraryRepository creates a new itinerary repository
func NewItineraryRepository(db *gorm.DB, readOnlyDB *gorm.DB) ItineraryRepository {
	return &itineraryRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// viewQuery builds the item read projection with left-joined place fields
func (r *itineraryRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.readOnlyDB.WithContext(ctx).
		Table("itinerary_items").
		Select("itinerary_items.*, places.name AS place_name, places.latitude, places.longitude, places.address").
		Joins("LEFT JOIN places ON places.id = itinerary_items.place_id AND places.deleted_at IS NULL").
		Where("itinerary_items.deleted_at IS NULL")
}

// Create inserts a new itinerary item
func (r *itineraryRepository) Create(ctx context.Context, item *models.ItineraryItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return errors.Wrap(err, "failed to create itinerary item")
	}
	return nil
}

// FindByID gets a single item with its place projection
func (r *itineraryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ItineraryItemView, error) {
	var views []models.ItineraryItemView
	err := r.viewQuery(ctx).
		Where("itinerary_items.id = ?", id).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get itinerary item")
	}
	if len(views) == 0 {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "itinerary item %s", id)
	}
	return &views[0], nil
}

// FindByIDs loads the bare rows for a set of ids. Missing ids are simply
// absent from the result; callers decide whether that is an error.
func (r *itineraryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ItineraryItem, error) {
	var items []models.ItineraryItem
	err := r.readOnlyDB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load itinerary items by ids")
	}
	return items, nil
}

// FindByTripID returns all items of a trip ordered by (day, order)
func (r *itineraryRepository) FindByTripID(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryItemView, error) {
	var views []models.ItineraryItemView
	err := r.viewQuery(ctx).
		Where("itinerary_items.trip_id = ?", tripID).
		Order("itinerary_items.day_number ASC, itinerary_items.order_index ASC").
		Scan(&views).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list itinerary items by trip")
	}
	return views, nil
}

// FindByTripAndDay returns one day's items ordered by order index
func (r *itineraryRepository) FindByTripAndDay(ctx context.Context, tripID uuid.UUID, day int) ([]models.ItineraryItemView, error) {
	var views []models.ItineraryItemView
	err := r.viewQuery(ctx).
		Where("itinerary_items.trip_id = ? AND itinerary_items.day_number = ?", tripID, day).
		Order("itinerary_items.order_index ASC").
		Scan(&views).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list itinerary items by day")
	}
	return views, nil
}

// Update performs a full-field update of an existing item
func (r *itineraryRepository) Update(ctx context.Context, item *models.ItineraryItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.ItineraryItem{}).
		Where("id = ?", item.ID).
		Select("place_id", "title", "description", "start_time", "end_time", "day_number", "order_index", "tags").
		Updates(item)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update itinerary item")
	}

	if result.RowsAffected == 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "itinerary item %s", item.ID)
	}

	return nil
}

// UpdateOrderBatch applies a set of order index updates as a single
// transaction. Every listed row must still exist when the update runs;
// otherwise the whole batch rolls back. That keeps a concurrent delete
// between the caller's existence check and this write from leaving a
// partial reorder behind.
func (r *itineraryRepository) UpdateOrderBatch(ctx context.Context, updates []OrderUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			result := tx.Model(&models.ItineraryItem{}).
				Where("id = ?", u.ID).
				Update("order_index", u.OrderIndex)
			if result.Error != nil {
				return errors.Wrap(result.Error, "failed to update order index")
			}
			if result.RowsAffected == 0 {
				return errors.Wrapf(apperrors.ErrItemsNotFound, "itinerary item %s disappeared during batch update", u.ID)
			}
		}
		return nil
	})
}

// MoveToDay updates day number and order index of a single item together
func (r *itineraryRepository) MoveToDay(ctx context.Context, id uuid.UUID, day, orderIndex int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ItineraryItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"day_number":  day,
			"order_index": orderIndex,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to move itinerary item")
	}

	if result.RowsAffected == 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "itinerary item %s", id)
	}

	return nil
}

// Delete removes one item and reports whether a row went away
func (r *itineraryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.ItineraryItem{}, "id = ?", id)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to delete itinerary item")
	}
	return result.RowsAffected > 0, nil
}

// DeleteByTripID removes all items of a trip, used on trip deletion
func (r *itineraryRepository) DeleteByTripID(ctx context.Context, tripID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Delete(&models.ItineraryItem{}).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete itinerary items by trip")
	}
	return nil
}
