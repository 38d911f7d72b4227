// Package lifecycle enforces the per-driver trip state machine:
// no active trip -> active trip -> finalized.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TripStore is the persistence the manager needs. CreateTrip must fail with
// domain.ErrActiveTripExists when the driver already has an open trip, and
// FinalizeTrip with domain.ErrAlreadyFinalized when the trip is closed, both
// decided atomically by the store.
type TripStore interface {
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	FindActiveTrip(ctx context.Context, driverID string) (*domain.Trip, error)
	CreateTrip(ctx context.Context, trip domain.Trip) (*domain.Trip, error)
	FinalizeTrip(ctx context.Context, tripID string, endedAt time.Time) (*domain.Trip, error)
}

// Manager starts, finalizes and admits trips.
type Manager struct {
	store  TripStore
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a manager using the wall clock.
func NewManager(store TripStore, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a trip for driverID starting now.
func (m *Manager) Start(ctx context.Context, driverID string) (*domain.Trip, error) {
	if _, err := m.store.GetDriver(ctx, driverID); err != nil {
		return nil, err
	}

	active, err := m.store.FindActiveTrip(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active trip: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w (trip %s)", domain.ErrActiveTripExists, active.TripID)
	}

	trip, err := m.store.CreateTrip(ctx, domain.Trip{
		TripID:    uuid.New().String(),
		DriverID:  driverID,
		StartedAt: m.now(),
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Trip started",
		zap.String("trip_id", trip.TripID),
		zap.String("driver_id", driverID),
	)
	return trip, nil
}

// Finalize closes tripID at endedAt. A zero endedAt means now.
func (m *Manager) Finalize(ctx context.Context, tripID string, endedAt time.Time) (*domain.Trip, error) {
	if endedAt.IsZero() {
		endedAt = m.now()
	}

	trip, err := m.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := CheckFinalize(*trip, endedAt); err != nil {
		return nil, err
	}

	finalized, err := m.store.FinalizeTrip(ctx, tripID, endedAt)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Trip finalized",
		zap.String("trip_id", tripID),
		zap.Time("ended_at", endedAt),
	)
	return finalized, nil
}

// RequireActive returns the trip if it exists and accepts readings.
func (m *Manager) RequireActive(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := m.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := CheckAdmission(*trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// CheckFinalize validates a finalize transition. The time range is checked
// first so an invalid end fails whatever the state.
func CheckFinalize(trip domain.Trip, endedAt time.Time) error {
	if endedAt.Before(trip.StartedAt) {
		return fmt.Errorf("%w: ended_at %s is before started_at %s",
			domain.ErrInvalidTimeRange, endedAt.Format(time.RFC3339), trip.StartedAt.Format(time.RFC3339))
	}
	if !trip.IsActive() {
		return domain.ErrAlreadyFinalized
	}
	return nil
}

// CheckAdmission rejects readings for finalized trips.
func CheckAdmission(trip domain.Trip) error {
	if !trip.IsActive() {
		return domain.ErrTripClosed
	}
	return nil
}
