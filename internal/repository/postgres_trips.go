package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tripColumns = `trip_id, driver_id, started_at, ended_at`

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var (
		t     domain.Trip
		ended sql.NullTime
	)
	if err := row.Scan(&t.TripID, &t.DriverID, &t.StartedAt, &ended); err != nil {
		return nil, err
	}
	t.EndedAt = timePtr(ended)
	return &t, nil
}

// CreateTrip relies on the partial unique index uq_trips_driver_active to
// reject a second open trip for the same driver.
func (s *PostgresStore) CreateTrip(ctx context.Context, trip domain.Trip) (*domain.Trip, error) {
	if trip.TripID == "" {
		trip.TripID = uuid.NewString()
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO trips (trip_id, driver_id, started_at, ended_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+tripColumns,
		trip.TripID, trip.DriverID, trip.StartedAt, nullTime(trip.EndedAt),
	)
	created, err := scanTrip(row)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return nil, fmt.Errorf("%w (driver %s)", domain.ErrActiveTripExists, trip.DriverID)
		case pqForeignKeyViolation, pqInvalidTextRepr:
			return nil, fmt.Errorf("driver %s: %w", trip.DriverID, domain.ErrNotFound)
		case pqCheckViolation:
			return nil, domain.ErrInvalidTimeRange
		}
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	s.logger.Debug("Trip created",
		zap.String("trip_id", created.TripID),
		zap.String("driver_id", created.DriverID),
	)
	return created, nil
}

func (s *PostgresStore) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE trip_id = $1`, tripID)
	t, err := scanTrip(row)
	if err != nil {
		return nil, lookupErr(err, "trip", tripID)
	}
	return t, nil
}

func (s *PostgresStore) FindActiveTrip(ctx context.Context, driverID string) (*domain.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips
		 WHERE driver_id = $1 AND ended_at IS NULL
		 LIMIT 1`, driverID)
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepr {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active trip: %w", err)
	}
	return t, nil
}

// FinalizeTrip only updates an open trip. When nothing was updated the trip
// is looked up again to tell a missing trip from a closed one.
func (s *PostgresStore) FinalizeTrip(ctx context.Context, tripID string, endedAt time.Time) (*domain.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE trips SET ended_at = $2
		 WHERE trip_id = $1 AND ended_at IS NULL
		 RETURNING `+tripColumns,
		tripID, endedAt,
	)
	t, err := scanTrip(row)
	if err == nil {
		return t, nil
	}
	if pqCode(err) == pqCheckViolation {
		return nil, domain.ErrInvalidTimeRange
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, lookupErr(err, "trip", tripID)
	}

	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return nil, domain.ErrAlreadyFinalized
}

func (s *PostgresStore) ListTrips(ctx context.Context, filter TripFilter) ([]domain.Trip, error) {
	var args []interface{}
	q := `SELECT ` + tripColumns + ` FROM trips`
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		q += ` WHERE driver_id = $1`
	}
	q += ` ORDER BY started_at DESC, trip_id`
	page, args := pageClause(filter.Page, args)
	q += page

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if pqCode(err) == pqInvalidTextRepr {
			return []domain.Trip{}, nil
		}
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return out, nil
}
