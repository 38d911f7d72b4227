package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Used when the DB is disabled and
// in tests. A single mutex makes check-then-write sequences atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	drivers  map[string]domain.Driver
	trips    map[string]domain.Trip
	readings map[string]domain.SensorReading
	alerts   map[string]domain.Alert
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers:  map[string]domain.Driver{},
		trips:    map[string]domain.Trip{},
		readings: map[string]domain.SensorReading{},
		alerts:   map[string]domain.Alert{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CreateDriver(_ context.Context, d domain.Driver) (*domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.DriverID == "" {
		d.DriverID = uuid.NewString()
	}
	if _, exists := s.drivers[d.DriverID]; exists {
		return nil, fmt.Errorf("%w: driver %s already exists", domain.ErrConflict, d.DriverID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	s.drivers[d.DriverID] = d
	return &d, nil
}

func (s *MemoryStore) GetDriver(_ context.Context, driverID string) (*domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drivers[driverID]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", driverID, domain.ErrNotFound)
	}
	return &d, nil
}

func (s *MemoryStore) ListDrivers(_ context.Context, filter DriverFilter) ([]domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		if filter.Active != nil && d.Active != *filter.Active {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].DriverID < out[j].DriverID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, filter.Page), nil
}

func (s *MemoryStore) UpdateDriver(_ context.Context, driverID string, patch DriverPatch) (*domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[driverID]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", driverID, domain.ErrNotFound)
	}
	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.MedicalCondition != nil {
		d.MedicalCondition = patch.MedicalCondition
	}
	if patch.RiskWindow != nil {
		d.RiskWindow = patch.RiskWindow
	}
	if patch.Active != nil {
		d.Active = *patch.Active
	}
	s.drivers[driverID] = d
	return &d, nil
}

func (s *MemoryStore) DeleteDriver(_ context.Context, driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drivers[driverID]; !ok {
		return fmt.Errorf("driver %s: %w", driverID, domain.ErrNotFound)
	}
	for _, t := range s.trips {
		if t.DriverID == driverID {
			return fmt.Errorf("%w: driver %s has trips", domain.ErrConflict, driverID)
		}
	}
	delete(s.drivers, driverID)
	return nil
}

func (s *MemoryStore) CreateTrip(_ context.Context, trip domain.Trip) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drivers[trip.DriverID]; !ok {
		return nil, fmt.Errorf("driver %s: %w", trip.DriverID, domain.ErrNotFound)
	}
	if trip.EndedAt == nil {
		for _, t := range s.trips {
			if t.DriverID == trip.DriverID && t.IsActive() {
				return nil, fmt.Errorf("%w (trip %s)", domain.ErrActiveTripExists, t.TripID)
			}
		}
	}
	if trip.TripID == "" {
		trip.TripID = uuid.NewString()
	}
	s.trips[trip.TripID] = trip
	return &trip, nil
}

func (s *MemoryStore) GetTrip(_ context.Context, tripID string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trips[tripID]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
	}
	return &t, nil
}

func (s *MemoryStore) FindActiveTrip(_ context.Context, driverID string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trips {
		if t.DriverID == driverID && t.IsActive() {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FinalizeTrip(_ context.Context, tripID string, endedAt time.Time) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[tripID]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
	}
	if endedAt.Before(t.StartedAt) {
		return nil, domain.ErrInvalidTimeRange
	}
	if !t.IsActive() {
		return nil, domain.ErrAlreadyFinalized
	}
	t.EndedAt = &endedAt
	s.trips[tripID] = t
	return &t, nil
}

func (s *MemoryStore) ListTrips(_ context.Context, filter TripFilter) ([]domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Trip, 0)
	for _, t := range s.trips {
		if filter.DriverID != "" && t.DriverID != filter.DriverID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].TripID < out[j].TripID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return paginate(out, filter.Page), nil
}

func (s *MemoryStore) PersistReading(_ context.Context, r domain.SensorReading) (*domain.SensorReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[r.TripID]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", r.TripID, domain.ErrNotFound)
	}
	if !t.IsActive() {
		return nil, domain.ErrTripClosed
	}
	if r.ReadingID == "" {
		r.ReadingID = uuid.NewString()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = s.now()
	}
	s.readings[r.ReadingID] = r
	return &r, nil
}

func (s *MemoryStore) GetReading(_ context.Context, readingID string) (*domain.SensorReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.readings[readingID]
	if !ok {
		return nil, fmt.Errorf("reading %s: %w", readingID, domain.ErrNotFound)
	}
	return &r, nil
}

func (s *MemoryStore) ListReadings(_ context.Context, tripID string, page Page) ([]domain.SensorReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.tripReadings(tripID)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return paginate(out, page), nil
}

func (s *MemoryStore) LoadTripReadingsAndAlertCount(_ context.Context, tripID string) ([]domain.SensorReading, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.trips[tripID]; !ok {
		return nil, 0, fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
	}
	readings := s.tripReadings(tripID)
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})
	count := 0
	for _, a := range s.alerts {
		if a.TripID == tripID {
			count++
		}
	}
	return readings, count, nil
}

// tripReadings requires s.mu held.
func (s *MemoryStore) tripReadings(tripID string) []domain.SensorReading {
	out := make([]domain.SensorReading, 0)
	for _, r := range s.readings {
		if r.TripID == tripID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReadingID < out[j].ReadingID })
	return out
}

func (s *MemoryStore) PersistAlerts(_ context.Context, tripID string, at time.Time, descriptors []domain.AlertDescriptor) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return nil, fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
	}
	out := make([]domain.Alert, 0, len(descriptors))
	for _, d := range descriptors {
		a := domain.Alert{
			AlertID:     uuid.NewString(),
			TripID:      tripID,
			TriggeredAt: at,
			Kind:        d.Kind,
			Severity:    d.Severity,
		}
		s.alerts[a.AlertID] = a
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) CreateAlert(_ context.Context, a domain.Alert) (*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[a.TripID]; !ok {
		return nil, fmt.Errorf("trip %s: %w", a.TripID, domain.ErrNotFound)
	}
	if a.AlertID == "" {
		a.AlertID = uuid.NewString()
	}
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = s.now()
	}
	s.alerts[a.AlertID] = a
	return &a, nil
}

func (s *MemoryStore) GetAlert(_ context.Context, alertID string) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("alert %s: %w", alertID, domain.ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) ListAlerts(_ context.Context, filter AlertFilter) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Alert, 0)
	for _, a := range s.alerts {
		if filter.TripID != "" && a.TripID != filter.TripID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggeredAt.Equal(out[j].TriggeredAt) {
			return out[i].AlertID < out[j].AlertID
		}
		return out[i].TriggeredAt.After(out[j].TriggeredAt)
	})
	return paginate(out, filter.Page), nil
}

func paginate[T any](items []T, p Page) []T {
	start := p.Skip
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return items[start:end]
}
