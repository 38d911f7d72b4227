package repository

import (
	"context"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
)

// Page is an offset/limit window. Limit <= 0 means no limit.
type Page struct {
	Skip  int
	Limit int
}

// DriverFilter narrows ListDrivers.
type DriverFilter struct {
	Active *bool
	Page
}

// DriverPatch carries the fields to change; nil means unchanged.
type DriverPatch struct {
	Name             *string
	MedicalCondition *string
	RiskWindow       *string
	Active           *bool
}

// TripFilter narrows ListTrips. Results are newest start first.
type TripFilter struct {
	DriverID string
	Page
}

// AlertFilter narrows ListAlerts. Results are newest first.
type AlertFilter struct {
	TripID string
	Page
}

// DriversRepository stores drivers.
type DriversRepository interface {
	CreateDriver(ctx context.Context, d domain.Driver) (*domain.Driver, error)
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
	ListDrivers(ctx context.Context, filter DriverFilter) ([]domain.Driver, error)
	UpdateDriver(ctx context.Context, driverID string, patch DriverPatch) (*domain.Driver, error)
	// DeleteDriver fails with domain.ErrConflict when the driver has trips.
	DeleteDriver(ctx context.Context, driverID string) error
}

// TripsRepository stores trips.
type TripsRepository interface {
	// CreateTrip fails with domain.ErrActiveTripExists when the driver already
	// has an open trip and domain.ErrNotFound when the driver is unknown.
	CreateTrip(ctx context.Context, trip domain.Trip) (*domain.Trip, error)
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	// FindActiveTrip returns nil, nil when the driver has no open trip.
	FindActiveTrip(ctx context.Context, driverID string) (*domain.Trip, error)
	// FinalizeTrip sets ended_at only if the trip is still open.
	FinalizeTrip(ctx context.Context, tripID string, endedAt time.Time) (*domain.Trip, error)
	ListTrips(ctx context.Context, filter TripFilter) ([]domain.Trip, error)
}

// ReadingsRepository stores sensor readings.
type ReadingsRepository interface {
	// PersistReading inserts r only if its trip is still open.
	PersistReading(ctx context.Context, r domain.SensorReading) (*domain.SensorReading, error)
	GetReading(ctx context.Context, readingID string) (*domain.SensorReading, error)
	// ListReadings returns readings for a trip, newest first.
	ListReadings(ctx context.Context, tripID string, page Page) ([]domain.SensorReading, error)
	// LoadTripReadingsAndAlertCount reads a consistent snapshot, readings
	// oldest first.
	LoadTripReadingsAndAlertCount(ctx context.Context, tripID string) ([]domain.SensorReading, int, error)
}

// AlertsRepository stores alerts.
type AlertsRepository interface {
	// PersistAlerts stores all descriptors for one reading atomically.
	PersistAlerts(ctx context.Context, tripID string, at time.Time, descriptors []domain.AlertDescriptor) ([]domain.Alert, error)
	CreateAlert(ctx context.Context, a domain.Alert) (*domain.Alert, error)
	GetAlert(ctx context.Context, alertID string) (*domain.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]domain.Alert, error)
}

// Store is the full persistence surface.
type Store interface {
	DriversRepository
	TripsRepository
	ReadingsRepository
	AlertsRepository
	Ping(ctx context.Context) error
}
