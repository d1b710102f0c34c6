package repositories

import (
	"context"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TripRepository provides access to trip data
type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindByShareCode(ctx context.Context, code string) (*models.Trip, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Trip, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type tripRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *gorm.DB, readOnlyDB *gorm.DB) TripRepository {
	return &tripRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new trip
func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	if err := r.db.WithContext(ctx).Create(trip).Error; err != nil {
		return errors.Wrap(err, "failed to create trip")
	}
	return nil
}

// FindByID gets a trip by id
func (r *tripRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := r.readOnlyDB.WithContext(ctx).First(&trip, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "trip %s", id)
		}
		return nil, errors.Wrap(err, "failed to get trip by id")
	}
	return &trip, nil
}

// FindByShareCode gets a trip by its public share code
func (r *tripRepository) FindByShareCode(ctx context.Context, code string) (*models.Trip, error) {
	var trip models.Trip
	err := r.readOnlyDB.WithContext(ctx).First(&trip, "share_code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperrors.ErrNotFound, "no trip for share code")
		}
		return nil, errors.Wrap(err, "failed to get trip by share code")
	}
	return &trip, nil
}

// ListByUser returns the trips owned by a user, newest first
func (r *tripRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.readOnlyDB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&trips).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list trips by user")
	}
	return trips, nil
}

// ListIDs returns the ids of all live trips, used by the order audit worker
func (r *tripRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Trip{}).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list trip ids")
	}
	return ids, nil
}

// Delete removes a trip row. Dependent items and places are deleted by the
// service before this runs; the FK cascade is only a backstop.
func (r *tripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Trip{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete trip")
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "trip %s", id)
	}
	return nil
}
