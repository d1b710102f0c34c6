package services

import (
	"context"
	"time"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/cache"
	"example.com/tripplanner/internal/messaging"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const tripCacheTTL = 5 * time.Minute

// TripAccess is the trip access checker consumed by the itinerary and
// place services
type TripAccess interface {
	// Authorize resolves the trip and verifies the caller may read it, or
	// write to it when write is true. Owners may always do both; share
	// codes and public trips grant read only.
	Authorize(ctx context.Context, caller Caller, tripID uuid.UUID, write bool) (*models.Trip, error)
}

// TripService handles trip lifecycle and ownership checks
type TripService struct {
	tripRepo  repositories.TripRepository
	itemRepo  repositories.ItineraryRepository
	placeRepo repositories.PlaceRepository
	cache     *cache.RedisCache
	publisher messaging.Publisher
}

// NewTripService creates a new trip service
func NewTripService(
	tripRepo repositories.TripRepository,
	itemRepo repositories.ItineraryRepository,
	placeRepo repositories.PlaceRepository,
	redisCache *cache.RedisCache,
	publisher messaging.Publisher,
) *TripService {
	return &TripService{
		tripRepo:  tripRepo,
		itemRepo:  itemRepo,
		placeRepo: placeRepo,
		cache:     redisCache,
		publisher: publisher,
	}
}

// TripInput carries the caller-supplied trip fields
type TripInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsPublic    bool       `json:"is_public"`
}

// Create creates a trip owned by the caller and assigns its share code
func (s *TripService) Create(ctx context.Context, caller Caller, input TripInput) (*models.Trip, error) {
	if !caller.Authenticated() {
		return nil, errors.Wrap(apperrors.ErrForbidden, "trip creation requires an authenticated user")
	}
	if input.Name == "" {
		return nil, apperrors.Validationf("name", "is required")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, apperrors.Validationf("end_date", "must not be before start_date")
	}

	trip := &models.Trip{
		ID:          uuid.New(),
		UserID:      caller.UserID,
		Name:        input.Name,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsPublic:    input.IsPublic,
		ShareCode:   uuid.NewString(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	log.Info().
		Str("trip_id", trip.ID.String()).
		Str("user_id", trip.UserID.String()).
		Msg("Trip created")

	return trip, nil
}

// resolve loads a trip through the read cache
func (s *TripService) resolve(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	if s.cache != nil {
		var cached models.Trip
		if err := s.cache.Get(ctx, cache.TripCacheKey(tripID), &cached); err == nil {
			return &cached, nil
		}
	}

	trip, err := s.tripRepo.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.TripCacheKey(tripID), trip, tripCacheTTL); err != nil {
			log.Warn().Err(err).Str("trip_id", tripID.String()).Msg("Failed to cache trip")
		}
	}

	return trip, nil
}

// Authorize implements TripAccess
func (s *TripService) Authorize(ctx context.Context, caller Caller, tripID uuid.UUID, write bool) (*models.Trip, error) {
	trip, err := s.resolve(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if caller.Authenticated() && trip.UserID == caller.UserID {
		return trip, nil
	}

	if !write {
		if trip.IsPublic {
			return trip, nil
		}
		if caller.ShareCode != "" && caller.ShareCode == trip.ShareCode {
			return trip, nil
		}
	}

	return nil, errors.Wrapf(apperrors.ErrForbidden, "caller has no access to trip %s", tripID)
}

// BelongsToUser reports whether a trip is owned by the given user
func (s *TripService) BelongsToUser(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	trip, err := s.resolve(ctx, tripID)
	if err != nil {
		return false, err
	}
	return trip.UserID == userID, nil
}

// Get returns a trip the caller may read
func (s *TripService) Get(ctx context.Context, caller Caller, tripID uuid.UUID) (*models.Trip, error) {
	return s.Authorize(ctx, caller, tripID, false)
}

// List returns the caller's own trips
func (s *TripService) List(ctx context.Context, caller Caller) ([]models.Trip, error) {
	if !caller.Authenticated() {
		return nil, errors.Wrap(apperrors.ErrForbidden, "trip listing requires an authenticated user")
	}
	return s.tripRepo.ListByUser(ctx, caller.UserID)
}

// Delete removes a trip with all its itinerary items and places. The
// dependents go first; the storage-layer FK cascade is only a backstop.
func (s *TripService) Delete(ctx context.Context, caller Caller, tripID uuid.UUID) error {
	trip, err := s.Authorize(ctx, caller, tripID, true)
	if err != nil {
		return err
	}

	if err := s.itemRepo.DeleteByTripID(ctx, trip.ID); err != nil {
		return err
	}
	if err := s.placeRepo.DeleteByTripID(ctx, trip.ID); err != nil {
		return err
	}
	if err := s.tripRepo.Delete(ctx, trip.ID); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.TripCacheKey(trip.ID)); err != nil {
			log.Warn().Err(err).Str("trip_id", trip.ID.String()).Msg("Failed to invalidate trip cache")
		}
	}

	if s.publisher != nil {
		event := messaging.ItineraryEvent{Type: messaging.EventTripDeleted, TripID: trip.ID}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("trip_id", trip.ID.String()).Msg("Failed to publish trip deletion event")
		}
	}

	log.Info().
		Str("trip_id", trip.ID.String()).
		Str("user_id", trip.UserID.String()).
		Msg("Trip deleted with its itinerary items and places")

	return nil
}
