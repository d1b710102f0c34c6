package services

import (
	"context"
	"testing"
	"time"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Create(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripRepository) FindByShareCode(ctx context.Context, code string) (*models.Trip, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trip), args.Error(1)
}

func (m *MockTripRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockTripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestTripService(tripRepo *MockTripRepository, itemRepo *MockItineraryRepository, placeRepo *MockPlaceRepository) *TripService {
	return NewTripService(tripRepo, itemRepo, placeRepo, nil, nil)
}

func TestTripCreateRequiresAuthenticatedCaller(t *testing.T) {
	service := newTestTripService(new(MockTripRepository), new(MockItineraryRepository), new(MockPlaceRepository))

	_, err := service.Create(context.Background(), Caller{ShareCode: "peek"}, TripInput{Name: "Paris"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTripCreateValidatesDates(t *testing.T) {
	service := newTestTripService(new(MockTripRepository), new(MockItineraryRepository), new(MockPlaceRepository))

	start := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -3)

	_, err := service.Create(context.Background(), Caller{UserID: uuid.New()}, TripInput{
		Name:      "Paris",
		StartDate: &start,
		EndDate:   &end,
	})
	verr, ok := apperrors.IsValidation(err)
	require.True(t, ok)
	require.Equal(t, "end_date", verr.Field)
}

func TestTripCreateAssignsOwnerAndShareCode(t *testing.T) {
	tripRepo := new(MockTripRepository)
	caller := Caller{UserID: uuid.New()}

	tripRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Trip")).Return(nil)

	service := newTestTripService(tripRepo, new(MockItineraryRepository), new(MockPlaceRepository))

	trip, err := service.Create(context.Background(), caller, TripInput{Name: "Paris"})
	require.NoError(t, err)
	require.Equal(t, caller.UserID, trip.UserID)
	require.NotEqual(t, uuid.Nil, trip.ID)
	require.NotEmpty(t, trip.ShareCode)

	tripRepo.AssertExpectations(t)
}

func TestAuthorizeOwnerHasFullAccess(t *testing.T) {
	tripRepo := new(MockTripRepository)
	owner := uuid.New()
	trip := &models.Trip{ID: uuid.New(), UserID: owner, ShareCode: "code"}
	tripRepo.On("FindByID", mock.Anything, trip.ID).Return(trip, nil)

	service := newTestTripService(tripRepo, new(MockItineraryRepository), new(MockPlaceRepository))

	_, err := service.Authorize(context.Background(), Caller{UserID: owner}, trip.ID, true)
	require.NoError(t, err)

	_, err = service.Authorize(context.Background(), Caller{UserID: owner}, trip.ID, false)
	require.NoError(t, err)
}

func TestAuthorizeShareCodeGrantsReadOnly(t *testing.T) {
	tripRepo := new(MockTripRepository)
	trip := &models.Trip{ID: uuid.New(), UserID: uuid.New(), ShareCode: "code"}
	tripRepo.On("FindByID", mock.Anything, trip.ID).Return(trip, nil)

	service := newTestTripService(tripRepo, new(MockItineraryRepository), new(MockPlaceRepository))

	guest := Caller{ShareCode: "code"}

	_, err := service.Authorize(context.Background(), guest, trip.ID, false)
	require.NoError(t, err)

	_, err = service.Authorize(context.Background(), guest, trip.ID, true)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// A wrong code grants nothing
	_, err = service.Authorize(context.Background(), Caller{ShareCode: "wrong"}, trip.ID, false)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAuthorizePublicTripIsReadable(t *testing.T) {
	tripRepo := new(MockTripRepository)
	trip := &models.Trip{ID: uuid.New(), UserID: uuid.New(), IsPublic: true, ShareCode: "code"}
	tripRepo.On("FindByID", mock.Anything, trip.ID).Return(trip, nil)

	service := newTestTripService(tripRepo, new(MockItineraryRepository), new(MockPlaceRepository))

	stranger := Caller{UserID: uuid.New()}

	_, err := service.Authorize(context.Background(), stranger, trip.ID, false)
	require.NoError(t, err)

	_, err = service.Authorize(context.Background(), stranger, trip.ID, true)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTripDeleteRemovesDependentsFirst(t *testing.T) {
	tripRepo := new(MockTripRepository)
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	owner := uuid.New()
	trip := &models.Trip{ID: uuid.New(), UserID: owner}

	var order []string
	tripRepo.On("FindByID", mock.Anything, trip.ID).Return(trip, nil)
	itemRepo.On("DeleteByTripID", mock.Anything, trip.ID).
		Run(func(mock.Arguments) { order = append(order, "items") }).Return(nil)
	placeRepo.On("DeleteByTripID", mock.Anything, trip.ID).
		Run(func(mock.Arguments) { order = append(order, "places") }).Return(nil)
	tripRepo.On("Delete", mock.Anything, trip.ID).
		Run(func(mock.Arguments) { order = append(order, "trip") }).Return(nil)

	service := newTestTripService(tripRepo, itemRepo, placeRepo)

	err := service.Delete(context.Background(), Caller{UserID: owner}, trip.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"items", "places", "trip"}, order)

	tripRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
	placeRepo.AssertExpectations(t)
}

func TestTripDeleteForbiddenForNonOwner(t *testing.T) {
	tripRepo := new(MockTripRepository)
	itemRepo := new(MockItineraryRepository)
	trip := &models.Trip{ID: uuid.New(), UserID: uuid.New()}
	tripRepo.On("FindByID", mock.Anything, trip.ID).Return(trip, nil)

	service := newTestTripService(tripRepo, itemRepo, new(MockPlaceRepository))

	err := service.Delete(context.Background(), Caller{UserID: uuid.New()}, trip.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	itemRepo.AssertNotCalled(t, "DeleteByTripID", mock.Anything, mock.Anything)
}
