package services

import (
	"context"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/search"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlaceService handles the places attached to a trip and keeps the
// search index in step with the store
type PlaceService struct {
	placeRepo repositories.PlaceRepository
	trips     TripAccess
	elastic   *search.ElasticClient
}

// NewPlaceService creates a new place service
func NewPlaceService(
	placeRepo repositories.PlaceRepository,
	trips TripAccess,
	elastic *search.ElasticClient,
) *PlaceService {
	return &PlaceService{
		placeRepo: placeRepo,
		trips:     trips,
		elastic:   elastic,
	}
}

// PlaceInput carries the caller-supplied place fields
type PlaceInput struct {
	TripID      uuid.UUID `json:"trip_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
}

// Create attaches a place to a trip the caller owns and indexes it
func (s *PlaceService) Create(ctx context.Context, caller Caller, input PlaceInput) (*models.Place, error) {
	if _, err := s.trips.Authorize(ctx, caller, input.TripID, true); err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, apperrors.Validationf("name", "is required")
	}
	if input.Latitude < -90 || input.Latitude > 90 {
		return nil, apperrors.Validationf("latitude", "must be between -90 and 90")
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.Validationf("longitude", "must be between -180 and 180")
	}

	place := &models.Place{
		ID:          uuid.New(),
		TripID:      input.TripID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     input.Address,
	}

	if err := s.placeRepo.Create(ctx, place); err != nil {
		return nil, err
	}

	if s.elastic != nil {
		if err := s.elastic.IndexPlace(ctx, place); err != nil {
			log.Warn().Err(err).Str("place_id", place.ID.String()).Msg("Failed to index place")
		}
	}

	log.Info().
		Str("place_id", place.ID.String()).
		Str("trip_id", place.TripID.String()).
		Msg("Place created")

	return place, nil
}

// Get returns one place the caller may read
func (s *PlaceService) Get(ctx context.Context, caller Caller, placeID uuid.UUID) (*models.Place, error) {
	place, err := s.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.trips.Authorize(ctx, caller, place.TripID, false); err != nil {
		return nil, err
	}
	return place, nil
}

// List returns the places of a trip the caller may read
func (s *PlaceService) List(ctx context.Context, caller Caller, tripID uuid.UUID) ([]models.Place, error) {
	if _, err := s.trips.Authorize(ctx, caller, tripID, false); err != nil {
		return nil, err
	}
	return s.placeRepo.ListByTrip(ctx, tripID)
}

// Delete removes a place and its index document. Itinerary items keep
// their place_id until the row is gone; the read projection then simply
// stops joining place fields in.
func (s *PlaceService) Delete(ctx context.Context, caller Caller, placeID uuid.UUID) (bool, error) {
	place, err := s.placeRepo.FindByID(ctx, placeID)
	if err != nil {
		return false, err
	}

	if _, err := s.trips.Authorize(ctx, caller, place.TripID, true); err != nil {
		return false, err
	}

	deleted, err := s.placeRepo.Delete(ctx, placeID)
	if err != nil {
		return false, err
	}

	if deleted && s.elastic != nil {
		if err := s.elastic.DeletePlace(ctx, placeID.String()); err != nil {
			log.Warn().Err(err).Str("place_id", placeID.String()).Msg("Failed to deindex place")
		}
	}

	return deleted, nil
}

// Search runs a full-text place search scoped to one trip
func (s *PlaceService) Search(ctx context.Context, caller Caller, tripID uuid.UUID, query string, limit int) ([]search.PlaceHit, error) {
	if query == "" {
		return nil, apperrors.Validationf("q", "is required")
	}
	if _, err := s.trips.Authorize(ctx, caller, tripID, false); err != nil {
		return nil, err
	}
	if s.elastic == nil {
		return []search.PlaceHit{}, nil
	}
	return s.elastic.SearchPlaces(ctx, query, tripID.String(), limit)
}
