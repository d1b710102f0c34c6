package repositories

import (
	"context"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PlaceRepository provides access to place data
type PlaceRepository interface {
	Create(ctx context.Context, place *models.Place) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Place, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Place, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByTripID(ctx context.Context, tripID uuid.UUID) error
}

type placeRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *gorm.DB, readOnlyDB *gorm.DB) PlaceRepository {
	return &placeRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new place
func (r *placeRepository) Create(ctx context.Context, place *models.Place) error {
	if err := r.db.WithContext(ctx).Create(place).Error; err != nil {
		return errors.Wrap(err, "failed to create place")
	}
	return nil
}

// FindByID gets a place by id
func (r *placeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	var place models.Place
	err := r.readOnlyDB.WithContext(ctx).First(&place, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "place %s", id)
		}
		return nil, errors.Wrap(err, "failed to get place by id")
	}
	return &place, nil
}

// ListByTrip returns the places attached to a trip
func (r *placeRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Place, error) {
	var places []models.Place
	err := r.readOnlyDB.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&places).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list places by trip")
	}
	return places, nil
}

// Delete removes one place and reports whether a row went away
func (r *placeRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Place{}, "id = ?", id)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to delete place")
	}
	return result.RowsAffected > 0, nil
}

// DeleteByTripID removes all places of a trip, used on trip deletion
func (r *placeRepository) DeleteByTripID(ctx context.Context, tripID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Delete(&models.Place{}).Error
	if err != nil {
		return errors.Wrap(err, "failed to delete places by trip")
	}
	return nil
}
