package services

import (
	"context"
	"testing"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/ordering"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock repositories for testing

type MockItineraryRepository struct {
	mock.Mock
}

func (m *MockItineraryRepository) Create(ctx context.Context, item *models.ItineraryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItineraryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ItineraryItemView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItineraryItemView), args.Error(1)
}

func (m *MockItineraryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ItineraryItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItineraryItem), args.Error(1)
}

func (m *MockItineraryRepository) FindByTripID(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryItemView, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItineraryItemView), args.Error(1)
}

func (m *MockItineraryRepository) FindByTripAndDay(ctx context.Context, tripID uuid.UUID, day int) ([]models.ItineraryItemView, error) {
	args := m.Called(ctx, tripID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItineraryItemView), args.Error(1)
}

func (m *MockItineraryRepository) Update(ctx context.Context, item *models.ItineraryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItineraryRepository) UpdateOrderBatch(ctx context.Context, updates []repositories.OrderUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

func (m *MockItineraryRepository) MoveToDay(ctx context.Context, id uuid.UUID, day, orderIndex int) error {
	args := m.Called(ctx, id, day, orderIndex)
	return args.Error(0)
}

func (m *MockItineraryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockItineraryRepository) DeleteByTripID(ctx context.Context, tripID uuid.UUID) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) Create(ctx context.Context, place *models.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *MockPlaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockPlaceRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Place, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Place), args.Error(1)
}

func (m *MockPlaceRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlaceRepository) DeleteByTripID(ctx context.Context, tripID uuid.UUID) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

type MockTripAccess struct {
	mock.Mock
}

func (m *MockTripAccess) Authorize(ctx context.Context, caller Caller, tripID uuid.UUID, write bool) (*models.Trip, error) {
	args := m.Called(ctx, caller, tripID, write)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func testTracer(t *testing.T) tracing.Tracer {
	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)
	return tracer
}

func newTestItineraryService(t *testing.T, itemRepo *MockItineraryRepository, placeRepo *MockPlaceRepository, trips *MockTripAccess) *ItineraryService {
	return NewItineraryService(itemRepo, placeRepo, trips, ordering.NewEngine(itemRepo), nil, nil, testTracer(t))
}

func validInput(tripID uuid.UUID) ItemInput {
	return ItemInput{
		TripID:     tripID,
		Title:      "Louvre",
		StartTime:  "09:00",
		EndTime:    "12:30",
		DayNumber:  1,
		OrderIndex: 1,
		Tags:       []string{"museum"},
	}
}

func TestCreateItemRejectsInvertedClockRange(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	caller := Caller{UserID: uuid.New()}

	trips.On("Authorize", mock.Anything, caller, tripID, true).Return(&models.Trip{ID: tripID}, nil)

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	input := validInput(tripID)
	input.StartTime = "18:00"
	input.EndTime = "09:00"

	_, err := service.Create(context.Background(), caller, input)
	_, ok := apperrors.IsValidation(err)
	require.True(t, ok)

	// Equal start and end is just as invalid
	input.StartTime = "09:00"
	input.EndTime = "09:00"
	_, err = service.Create(context.Background(), caller, input)
	_, ok = apperrors.IsValidation(err)
	require.True(t, ok)

	itemRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateItemRejectsMalformedClock(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	caller := Caller{UserID: uuid.New()}

	trips.On("Authorize", mock.Anything, caller, tripID, true).Return(&models.Trip{ID: tripID}, nil)

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	input := validInput(tripID)
	input.StartTime = "9am"

	_, err := service.Create(context.Background(), caller, input)
	verr, ok := apperrors.IsValidation(err)
	require.True(t, ok)
	require.Equal(t, "start_time", verr.Field)

	itemRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateItemRejectsForeignPlace(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	placeID := uuid.New()
	caller := Caller{UserID: uuid.New()}

	trips.On("Authorize", mock.Anything, caller, tripID, true).Return(&models.Trip{ID: tripID}, nil)
	placeRepo.On("FindByID", mock.Anything, placeID).Return(&models.Place{ID: placeID, TripID: uuid.New()}, nil)

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	input := validInput(tripID)
	input.PlaceID = &placeID

	_, err := service.Create(context.Background(), caller, input)
	verr, ok := apperrors.IsValidation(err)
	require.True(t, ok)
	require.Equal(t, "place_id", verr.Field)

	itemRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateItemPersistsAndReturnsView(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	caller := Caller{UserID: uuid.New()}

	trips.On("Authorize", mock.Anything, caller, tripID, true).Return(&models.Trip{ID: tripID}, nil)

	var created *models.ItineraryItem
	itemRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.ItineraryItem")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.ItineraryItem)
		}).
		Return(nil)
	itemRepo.On("FindByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(&models.ItineraryItemView{}, nil)

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	view, err := service.Create(context.Background(), caller, validInput(tripID))
	require.NoError(t, err)
	require.NotNil(t, view)

	require.NotNil(t, created)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, tripID, created.TripID)
	require.Equal(t, "Louvre", created.Title)
	require.Equal(t, 1, created.DayNumber)
	require.Equal(t, 1, created.OrderIndex)

	itemRepo.AssertExpectations(t)
	trips.AssertExpectations(t)
}

func TestCreateItemForbidden(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	caller := Caller{ShareCode: "peek"}

	trips.On("Authorize", mock.Anything, caller, tripID, true).
		Return(nil, errors.Wrap(apperrors.ErrForbidden, "share codes grant read only"))

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	_, err := service.Create(context.Background(), caller, validInput(tripID))
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	itemRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateItemKeepsTripImmutable(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	itemID := uuid.New()
	caller := Caller{UserID: uuid.New()}

	existing := &models.ItineraryItemView{
		ItineraryItem: models.ItineraryItem{ID: itemID, TripID: tripID, DayNumber: 1, OrderIndex: 1},
	}
	itemRepo.On("FindByID", mock.Anything, itemID).Return(existing, nil)
	trips.On("Authorize", mock.Anything, caller, tripID, true).Return(&models.Trip{ID: tripID}, nil)

	var updated *models.ItineraryItem
	itemRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.ItineraryItem")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*models.ItineraryItem)
		}).
		Return(nil)

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	input := validInput(uuid.New()) // different trip id in the payload
	_, err := service.Update(context.Background(), caller, itemID, input)
	require.NoError(t, err)

	require.NotNil(t, updated)
	require.Equal(t, tripID, updated.TripID)
}

func TestReorderBatchResolvesTripFromFirstItem(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	caller := Caller{UserID: uuid.New()}

	idA, idB := uuid.New(), uuid.New()
	updates := []repositories.OrderUpdate{
		{ID: idA, OrderIndex: 2},
		{ID: idB, OrderIndex: 1},
	}

	itemRepo.On("FindByID", mock.Anything, idA).Return(&models.ItineraryItemView{
		ItineraryItem: models.ItineraryItem{ID: idA, TripID: tripID},
	}, nil)
	trips.On("Authorize", mock.Anything, caller, tripID, true).Return(&models.Trip{ID: tripID}, nil)
	itemRepo.On("FindByIDs", mock.Anything, []uuid.UUID{idA, idB}).Return([]models.ItineraryItem{
		{ID: idA, TripID: tripID},
		{ID: idB, TripID: tripID},
	}, nil)
	itemRepo.On("UpdateOrderBatch", mock.Anything, updates).Return(nil)

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	err := service.ReorderBatch(context.Background(), caller, updates)
	require.NoError(t, err)

	itemRepo.AssertExpectations(t)
	trips.AssertExpectations(t)
}

func TestReorderBatchMissingFirstItemIsBatchError(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	caller := Caller{UserID: uuid.New()}

	missing := uuid.New()
	itemRepo.On("FindByID", mock.Anything, missing).
		Return(nil, errors.Wrapf(apperrors.ErrNotFound, "itinerary item %s", missing))

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	err := service.ReorderBatch(context.Background(), caller, []repositories.OrderUpdate{
		{ID: missing, OrderIndex: 1},
	})
	require.ErrorIs(t, err, apperrors.ErrItemsNotFound)
}

func TestMoveToDayChecksWriteAccess(t *testing.T) {
	itemRepo := new(MockItineraryRepository)
	placeRepo := new(MockPlaceRepository)
	trips := new(MockTripAccess)
	tripID := uuid.New()
	itemID := uuid.New()
	caller := Caller{ShareCode: "peek"}

	itemRepo.On("FindByID", mock.Anything, itemID).Return(&models.ItineraryItemView{
		ItineraryItem: models.ItineraryItem{ID: itemID, TripID: tripID, DayNumber: 1},
	}, nil)
	trips.On("Authorize", mock.Anything, caller, tripID, true).
		Return(nil, errors.Wrap(apperrors.ErrForbidden, "share codes grant read only"))

	service := newTestItineraryService(t, itemRepo, placeRepo, trips)

	_, err := service.MoveToDay(context.Background(), caller, itemID, 2, 0)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	itemRepo.AssertNotCalled(t, "MoveToDay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListByDayValidatesDay(t *testing.T) {
	service := newTestItineraryService(t, new(MockItineraryRepository), new(MockPlaceRepository), new(MockTripAccess))

	_, err := service.ListByDay(context.Background(), Caller{UserID: uuid.New()}, uuid.New(), 0)
	verr, ok := apperrors.IsValidation(err)
	require.True(t, ok)
	require.Equal(t, "day_number", verr.Field)
}
