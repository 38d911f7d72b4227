package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/evaluator"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"

	"github.com/google/uuid"
)

type seedDriver struct {
	name      string
	condition string
	window    string
	active    bool
}

var seedDrivers = []seedDriver{
	{name: "Juan Pérez", condition: "None", window: "22:00-06:00", active: true},
	{name: "María García", condition: "Hypertension", window: "00:00-08:00", active: true},
	{name: "Carlos Rodríguez", condition: "Diabetes", window: "23:00-07:00", active: true},
	{name: "Ana Martínez", condition: "None", window: "01:00-09:00", active: false},
}

// manualAlert is recorded at a fixed offset from the start of a seeded trip.
type manualAlert struct {
	trip     int
	offset   time.Duration
	kind     domain.AlertKind
	severity domain.Severity
}

var seedManualAlerts = []manualAlert{
	{trip: 0, offset: 20 * time.Minute, kind: domain.AlertDrowsinessNodding, severity: domain.SeverityMedium},
	{trip: 0, offset: 45 * time.Minute, kind: domain.AlertFatigueYawning, severity: domain.SeverityHigh},
	{trip: 1, offset: 30 * time.Minute, kind: domain.AlertHighHeartRate, severity: domain.SeverityLow},
}

type seedSummary struct {
	Drivers  int
	Trips    int
	Readings int
	Alerts   int
}

// seed fills repo with sample drivers, trips and readings. Readings go
// through the rule engine so every stored alert matches its reading.
func seed(ctx context.Context, repo repository.Store, thresholds domain.Thresholds, rng *rand.Rand, now time.Time) (*seedSummary, error) {
	sum := &seedSummary{}

	drivers := make([]*domain.Driver, 0, len(seedDrivers))
	for _, sd := range seedDrivers {
		cond, window := sd.condition, sd.window
		d, err := repo.CreateDriver(ctx, domain.Driver{
			DriverID:         uuid.NewString(),
			Name:             sd.name,
			MedicalCondition: &cond,
			RiskWindow:       &window,
			Active:           sd.active,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create driver %s: %w", sd.name, err)
		}
		drivers = append(drivers, d)
		sum.Drivers++
	}

	var trips []*domain.Trip
	for i, d := range drivers {
		if !d.Active {
			continue
		}
		start := now.Add(-time.Duration(i+1)*24*time.Hour - 2*time.Hour)
		end := start.Add(time.Duration(1+rng.Intn(4)) * time.Hour)
		trip, err := seedTrip(ctx, repo, thresholds, rng, d.DriverID, start, &end, sum)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)

		if i == 0 {
			active, err := seedTrip(ctx, repo, thresholds, rng, d.DriverID, now.Add(-30*time.Minute), nil, sum)
			if err != nil {
				return nil, err
			}
			trips = append(trips, active)
		}
	}

	for _, m := range seedManualAlerts {
		if m.trip >= len(trips) {
			continue
		}
		t := trips[m.trip]
		if _, err := repo.CreateAlert(ctx, domain.Alert{
			AlertID:     uuid.NewString(),
			TripID:      t.TripID,
			TriggeredAt: t.StartedAt.Add(m.offset),
			Kind:        m.kind,
			Severity:    m.severity,
		}); err != nil {
			return nil, fmt.Errorf("failed to create manual alert: %w", err)
		}
		sum.Alerts++
	}
	return sum, nil
}

// seedTrip opens a trip, records 5 to 15 readings five minutes apart, then
// finalizes it when end is set.
func seedTrip(ctx context.Context, repo repository.Store, thresholds domain.Thresholds, rng *rand.Rand, driverID string, start time.Time, end *time.Time, sum *seedSummary) (*domain.Trip, error) {
	trip, err := repo.CreateTrip(ctx, domain.Trip{TripID: uuid.NewString(), DriverID: driverID, StartedAt: start})
	if err != nil {
		return nil, fmt.Errorf("failed to create trip for driver %s: %w", driverID, err)
	}
	sum.Trips++

	n := 5 + rng.Intn(11)
	for j := 0; j < n; j++ {
		hr := 45 + rng.Intn(81) // 45..125 so both heart-rate rules fire now and then
		closure := float64(50+rng.Intn(151)) / 100
		r := domain.SensorReading{
			ReadingID:     uuid.NewString(),
			TripID:        trip.TripID,
			RecordedAt:    start.Add(time.Duration(j*5) * time.Minute),
			HeartRate:     &hr,
			NodCount:      rng.Intn(7),
			YawnCount:     rng.Intn(9),
			EyelidClosure: &closure,
		}
		descriptors, err := evaluator.Evaluate(r, thresholds)
		if err != nil {
			return nil, err
		}
		stored, err := repo.PersistReading(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("failed to store reading: %w", err)
		}
		sum.Readings++
		alerts, err := repo.PersistAlerts(ctx, trip.TripID, stored.RecordedAt, descriptors)
		if err != nil {
			return nil, fmt.Errorf("failed to store alerts: %w", err)
		}
		sum.Alerts += len(alerts)
	}

	if end != nil {
		closed, err := repo.FinalizeTrip(ctx, trip.TripID, *end)
		if err != nil {
			return nil, fmt.Errorf("failed to finalize trip %s: %w", trip.TripID, err)
		}
		trip = closed
	}
	return trip, nil
}
