package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/lifecycle"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"
	"github.com/Adrieliyo/risk-advisor-backend/internal/stats"
	"github.com/Adrieliyo/risk-advisor-backend/internal/store"

	"go.uber.org/zap"
)

// TripService starts, finalizes and reports on trips.
type TripService struct {
	repo      repository.Store
	lifecycle *lifecycle.Manager
	kv        store.KV
	logger    *zap.Logger
}

func NewTripService(repo repository.Store, lc *lifecycle.Manager, kv store.KV, logger *zap.Logger) *TripService {
	return &TripService{repo: repo, lifecycle: lc, kv: kv, logger: logger}
}

// ListTripsRequest lists trips newest first, optionally for one driver.
type ListTripsRequest struct {
	DriverID string
	Skip     int
	Limit    int
}

// TripReport is everything the spreadsheet export needs.
type TripReport struct {
	Trip     domain.Trip
	Driver   *domain.Driver
	Summary  domain.TripSummary
	Readings []domain.SensorReading // oldest first
	Alerts   []domain.Alert         // newest first
}

func (s *TripService) StartTrip(ctx context.Context, driverID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver_id is required", domain.ErrInvalidInput)
	}
	return s.lifecycle.Start(ctx, driverID)
}

// FinalizeTrip closes the trip. A nil endedAt means now.
func (s *TripService) FinalizeTrip(ctx context.Context, tripID string, endedAt *time.Time) (*domain.Trip, error) {
	var end time.Time
	if endedAt != nil {
		end = endedAt.UTC()
	}
	trip, err := s.lifecycle.Finalize(ctx, tripID, end)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Del(ctx, store.LatestReadingKey(tripID)); err != nil {
		s.logger.Warn("Failed to evict latest reading", zap.String("trip_id", tripID), zap.Error(err))
	}
	return trip, nil
}

func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.repo.GetTrip(ctx, tripID)
}

// GetTripDetail assembles the trip with its driver, readings and alerts.
func (s *TripService) GetTripDetail(ctx context.Context, tripID string) (*domain.TripDetail, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	driver, err := s.repo.GetDriver(ctx, trip.DriverID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	readings, err := s.repo.ListReadings(ctx, tripID, repository.Page{})
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	alerts, err := s.repo.ListAlerts(ctx, repository.AlertFilter{TripID: tripID})
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	return &domain.TripDetail{Trip: *trip, Driver: driver, Readings: readings, Alerts: alerts}, nil
}

func (s *TripService) ListTrips(ctx context.Context, req ListTripsRequest) ([]domain.Trip, error) {
	page, err := normalizePage(req.Skip, req.Limit, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTrips(ctx, repository.TripFilter{DriverID: req.DriverID, Page: page})
}

// ActiveTrip returns the driver's open trip, or nil when there is none.
func (s *TripService) ActiveTrip(ctx context.Context, driverID string) (*domain.Trip, error) {
	if _, err := s.repo.GetDriver(ctx, driverID); err != nil {
		return nil, err
	}
	return s.repo.FindActiveTrip(ctx, driverID)
}

func (s *TripService) Statistics(ctx context.Context, tripID string) (*domain.TripSummary, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	readings, alertCount, err := s.repo.LoadTripReadingsAndAlertCount(ctx, tripID)
	if err != nil {
		return nil, err
	}
	summary := stats.Summarize(*trip, readings, alertCount)
	return &summary, nil
}

// LatestReading serves the cached latest reading and falls back to the
// store on a miss.
func (s *TripService) LatestReading(ctx context.Context, tripID string) (*domain.SensorReading, error) {
	if raw, err := s.kv.Get(ctx, store.LatestReadingKey(tripID)); err == nil {
		var r domain.SensorReading
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			return &r, nil
		}
		s.logger.Warn("Discarding malformed cached reading", zap.String("trip_id", tripID))
	} else if !errors.Is(err, store.ErrMiss) {
		s.logger.Warn("Latest reading cache unavailable", zap.String("trip_id", tripID), zap.Error(err))
	}

	if _, err := s.repo.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListReadings(ctx, tripID, repository.Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("trip %s has no readings: %w", tripID, domain.ErrNotFound)
	}
	return &list[0], nil
}

func (s *TripService) Report(ctx context.Context, tripID string) (*TripReport, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	driver, err := s.repo.GetDriver(ctx, trip.DriverID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	readings, alertCount, err := s.repo.LoadTripReadingsAndAlertCount(ctx, tripID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.repo.ListAlerts(ctx, repository.AlertFilter{TripID: tripID})
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}
	return &TripReport{
		Trip:     *trip,
		Driver:   driver,
		Summary:  stats.Summarize(*trip, readings, alertCount),
		Readings: readings,
		Alerts:   alerts,
	}, nil
}
