package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDriver(t *testing.T, s *MemoryStore, name string) *domain.Driver {
	t.Helper()
	d, err := s.CreateDriver(context.Background(), domain.Driver{Name: name, Active: true})
	require.NoError(t, err)
	return d
}

func TestMemoryStore_OneActiveTripPerDriverUnderConcurrency(t *testing.T) {
	s := NewMemoryStore()
	d := seedDriver(t, s, "Ana")

	var (
		wg        sync.WaitGroup
		ok        int32
		conflicts int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateTrip(context.Background(), domain.Trip{DriverID: d.DriverID, StartedAt: time.Now()})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case assert.ErrorIs(t, err, domain.ErrActiveTripExists):
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(19), conflicts)
}

func TestMemoryStore_FinalizeThenReadingRejected(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	d := seedDriver(t, s, "Ana")
	start := time.Now().Add(-time.Hour)

	trip, err := s.CreateTrip(ctx, domain.Trip{DriverID: d.DriverID, StartedAt: start})
	require.NoError(t, err)

	_, err = s.PersistReading(ctx, domain.SensorReading{TripID: trip.TripID, NodCount: 1})
	require.NoError(t, err)

	_, err = s.FinalizeTrip(ctx, trip.TripID, time.Now())
	require.NoError(t, err)

	_, err = s.PersistReading(ctx, domain.SensorReading{TripID: trip.TripID})
	assert.ErrorIs(t, err, domain.ErrTripClosed)

	_, err = s.FinalizeTrip(ctx, trip.TripID, time.Now())
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	active, err := s.FindActiveTrip(ctx, d.DriverID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestMemoryStore_ListReadingsNewestFirstAndLoadOldestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	d := seedDriver(t, s, "Ana")
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	trip, err := s.CreateTrip(ctx, domain.Trip{DriverID: d.DriverID, StartedAt: base})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.PersistReading(ctx, domain.SensorReading{TripID: trip.TripID, RecordedAt: base.Add(time.Duration(i) * time.Minute), NodCount: i})
		require.NoError(t, err)
	}
	_, err = s.PersistAlerts(ctx, trip.TripID, base, []domain.AlertDescriptor{{Kind: domain.AlertDrowsinessNodding, Severity: domain.SeverityMedium}})
	require.NoError(t, err)

	list, err := s.ListReadings(ctx, trip.TripID, Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].NodCount)
	assert.Equal(t, 1, list[1].NodCount)

	all, count, err := s.LoadTripReadingsAndAlertCount(ctx, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, all, 3)
	assert.Equal(t, 0, all[0].NodCount)
}

func TestMemoryStore_DriverDeleteAndFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := seedDriver(t, s, "Ana")
	b := seedDriver(t, s, "Luis")

	inactive := false
	_, err := s.UpdateDriver(ctx, b.DriverID, DriverPatch{Active: &inactive})
	require.NoError(t, err)

	active := true
	list, err := s.ListDrivers(ctx, DriverFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.DriverID, list[0].DriverID)

	_, err = s.CreateTrip(ctx, domain.Trip{DriverID: a.DriverID, StartedAt: time.Now()})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteDriver(ctx, a.DriverID), domain.ErrConflict)
	assert.NoError(t, s.DeleteDriver(ctx, b.DriverID))
	assert.ErrorIs(t, s.DeleteDriver(ctx, b.DriverID), domain.ErrNotFound)
}

func TestMemoryStore_CreateAlertRequiresTrip(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CreateAlert(context.Background(), domain.Alert{TripID: "nope", Kind: "MANUAL"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, Page{}))
	assert.Equal(t, []int{3, 4}, paginate(items, Page{Skip: 2, Limit: 2}))
	assert.Equal(t, []int{5}, paginate(items, Page{Skip: 4, Limit: 10}))
	assert.Empty(t, paginate(items, Page{Skip: 9}))
}
