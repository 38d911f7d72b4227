package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTripStore struct {
	mock.Mock
}

func (m *mockTripStore) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	args := m.Called(ctx, driverID)
	if d := args.Get(0); d != nil {
		return d.(*domain.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTripStore) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	args := m.Called(ctx, tripID)
	if t := args.Get(0); t != nil {
		return t.(*domain.Trip), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTripStore) FindActiveTrip(ctx context.Context, driverID string) (*domain.Trip, error) {
	args := m.Called(ctx, driverID)
	if t := args.Get(0); t != nil {
		return t.(*domain.Trip), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTripStore) CreateTrip(ctx context.Context, trip domain.Trip) (*domain.Trip, error) {
	args := m.Called(ctx, trip)
	switch t := args.Get(0).(type) {
	case func(context.Context, domain.Trip) *domain.Trip:
		return t(ctx, trip), args.Error(1)
	case *domain.Trip:
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTripStore) FinalizeTrip(ctx context.Context, tripID string, endedAt time.Time) (*domain.Trip, error) {
	args := m.Called(ctx, tripID, endedAt)
	if t := args.Get(0); t != nil {
		return t.(*domain.Trip), args.Error(1)
	}
	return nil, args.Error(1)
}

var fixedNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestManager(store TripStore) *Manager {
	m := NewManager(store, zap.NewNop())
	m.now = func() time.Time { return fixedNow }
	return m
}

func TestStart_CreatesTripWithoutEnd(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()

	store.On("GetDriver", ctx, "d1").Return(&domain.Driver{DriverID: "d1"}, nil)
	store.On("FindActiveTrip", ctx, "d1").Return(nil, nil)
	store.On("CreateTrip", ctx, mock.MatchedBy(func(tr domain.Trip) bool {
		return tr.DriverID == "d1" && tr.TripID != "" && tr.StartedAt.Equal(fixedNow) && tr.EndedAt == nil
	})).Return(func(_ context.Context, tr domain.Trip) *domain.Trip { return &tr }, nil)

	trip, err := newTestManager(store).Start(ctx, "d1")

	require.NoError(t, err)
	assert.Equal(t, "d1", trip.DriverID)
	assert.True(t, trip.IsActive())
	store.AssertExpectations(t)
}

func TestStart_ActiveTripConflict(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()

	store.On("GetDriver", ctx, "d1").Return(&domain.Driver{DriverID: "d1"}, nil)
	store.On("FindActiveTrip", ctx, "d1").Return(&domain.Trip{TripID: "t-open", DriverID: "d1"}, nil)

	trip, err := newTestManager(store).Start(ctx, "d1")

	assert.Nil(t, trip)
	assert.ErrorIs(t, err, domain.ErrActiveTripExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
	store.AssertNotCalled(t, "CreateTrip", mock.Anything, mock.Anything)
}

func TestStart_StoreRejectsConcurrentStart(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()

	store.On("GetDriver", ctx, "d1").Return(&domain.Driver{DriverID: "d1"}, nil)
	store.On("FindActiveTrip", ctx, "d1").Return(nil, nil)
	store.On("CreateTrip", ctx, mock.Anything).Return(nil, domain.ErrActiveTripExists)

	_, err := newTestManager(store).Start(ctx, "d1")

	assert.ErrorIs(t, err, domain.ErrActiveTripExists)
}

func TestStart_UnknownDriver(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()

	store.On("GetDriver", ctx, "missing").Return(nil, domain.ErrNotFound)

	_, err := newTestManager(store).Start(ctx, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFinalize_SetsEnd(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()
	start := fixedNow.Add(-time.Hour)
	end := fixedNow

	store.On("GetTrip", ctx, "t1").Return(&domain.Trip{TripID: "t1", StartedAt: start}, nil)
	store.On("FinalizeTrip", ctx, "t1", end).Return(&domain.Trip{TripID: "t1", StartedAt: start, EndedAt: &end}, nil)

	trip, err := newTestManager(store).Finalize(ctx, "t1", end)

	require.NoError(t, err)
	require.NotNil(t, trip.EndedAt)
	assert.Equal(t, end, *trip.EndedAt)
	store.AssertExpectations(t)
}

func TestFinalize_ZeroEndUsesNow(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()
	start := fixedNow.Add(-time.Hour)

	store.On("GetTrip", ctx, "t1").Return(&domain.Trip{TripID: "t1", StartedAt: start}, nil)
	store.On("FinalizeTrip", ctx, "t1", fixedNow).Return(&domain.Trip{TripID: "t1", StartedAt: start, EndedAt: &fixedNow}, nil)

	_, err := newTestManager(store).Finalize(ctx, "t1", time.Time{})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestFinalize_EndBeforeStart(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()
	start := fixedNow

	store.On("GetTrip", ctx, "t1").Return(&domain.Trip{TripID: "t1", StartedAt: start}, nil)

	_, err := newTestManager(store).Finalize(ctx, "t1", start.Add(-time.Minute))

	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	store.AssertNotCalled(t, "FinalizeTrip", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalize_AlreadyFinalized(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()
	start := fixedNow.Add(-time.Hour)
	end := fixedNow.Add(-time.Minute)

	store.On("GetTrip", ctx, "t1").Return(&domain.Trip{TripID: "t1", StartedAt: start, EndedAt: &end}, nil)

	_, err := newTestManager(store).Finalize(ctx, "t1", fixedNow)

	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestFinalize_NotFound(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()

	store.On("GetTrip", ctx, "nope").Return(nil, domain.ErrNotFound)

	_, err := newTestManager(store).Finalize(ctx, "nope", fixedNow)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequireActive(t *testing.T) {
	store := new(mockTripStore)
	ctx := context.Background()
	end := fixedNow

	store.On("GetTrip", ctx, "open").Return(&domain.Trip{TripID: "open"}, nil)
	store.On("GetTrip", ctx, "closed").Return(&domain.Trip{TripID: "closed", EndedAt: &end}, nil)
	store.On("GetTrip", ctx, "missing").Return(nil, domain.ErrNotFound)

	m := newTestManager(store)

	trip, err := m.RequireActive(ctx, "open")
	require.NoError(t, err)
	assert.Equal(t, "open", trip.TripID)

	_, err = m.RequireActive(ctx, "closed")
	assert.ErrorIs(t, err, domain.ErrTripClosed)

	_, err = m.RequireActive(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckFinalize_TimeRangeCheckedBeforeState(t *testing.T) {
	start := fixedNow
	end := fixedNow.Add(time.Hour)
	closed := domain.Trip{StartedAt: start, EndedAt: &end}

	err := CheckFinalize(closed, start.Add(-time.Second))

	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestCheckFinalize_EndEqualToStartIsAllowed(t *testing.T) {
	assert.NoError(t, CheckFinalize(domain.Trip{StartedAt: fixedNow}, fixedNow))
}
