package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/lifecycle"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"
	"github.com/Adrieliyo/risk-advisor-backend/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]domain.Alert
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, alerts []domain.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, alerts)
	return p.err
}

type fixture struct {
	repo     *repository.MemoryStore
	kv       store.KV
	pub      *recordingPublisher
	drivers  *DriverService
	trips    *TripService
	readings *ReadingService
	alerts   *AlertService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	repo := repository.NewMemoryStore()
	logger := zap.NewNop()
	lc := lifecycle.NewManager(repo, logger)
	pub := &recordingPublisher{}

	return &fixture{
		repo:     repo,
		kv:       kv,
		pub:      pub,
		drivers:  NewDriverService(repo, logger),
		trips:    NewTripService(repo, lc, kv, logger),
		readings: NewReadingService(repo, lc, domain.DefaultThresholds(), kv, time.Minute, pub, logger),
		alerts:   NewAlertService(repo, logger),
	}
}

func (f *fixture) startTrip(t *testing.T) (*domain.Driver, *domain.Trip) {
	t.Helper()
	ctx := context.Background()
	d, err := f.drivers.CreateDriver(ctx, CreateDriverRequest{Name: "Ana Torres"})
	require.NoError(t, err)
	trip, err := f.trips.StartTrip(ctx, d.DriverID)
	require.NoError(t, err)
	return d, trip
}

func intPtr(v int) *int { return &v }

// ============================================
// drivers
// ============================================

func TestCreateDriver_DefaultsActiveAndTrimsName(t *testing.T) {
	f := newFixture(t)

	d, err := f.drivers.CreateDriver(context.Background(), CreateDriverRequest{Name: "  Luis  "})

	require.NoError(t, err)
	assert.Equal(t, "Luis", d.Name)
	assert.True(t, d.Active)
}

func TestCreateDriver_NameValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.drivers.CreateDriver(ctx, CreateDriverRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.drivers.CreateDriver(ctx, CreateDriverRequest{Name: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateDriver_OnlySuppliedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cond := "hypertension"
	d, err := f.drivers.CreateDriver(ctx, CreateDriverRequest{Name: "Ana", MedicalCondition: &cond})
	require.NoError(t, err)

	inactive := false
	updated, err := f.drivers.UpdateDriver(ctx, d.DriverID, UpdateDriverRequest{Active: &inactive})

	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Ana", updated.Name)
	require.NotNil(t, updated.MedicalCondition)
	assert.Equal(t, "hypertension", *updated.MedicalCondition)
}

func TestListDrivers_LimitBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.drivers.ListDrivers(ctx, ListDriversRequest{Limit: 1001})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.drivers.ListDrivers(ctx, ListDriversRequest{Skip: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.drivers.ListDrivers(ctx, ListDriversRequest{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ============================================
// trips
// ============================================

func TestStartTrip_SecondStartConflicts(t *testing.T) {
	f := newFixture(t)
	d, first := f.startTrip(t)

	_, err := f.trips.StartTrip(context.Background(), d.DriverID)

	assert.ErrorIs(t, err, domain.ErrActiveTripExists)
	active, err := f.trips.ActiveTrip(context.Background(), d.DriverID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.TripID, active.TripID)
}

func TestStartTrip_AfterFinalizeSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, first := f.startTrip(t)

	_, err := f.trips.FinalizeTrip(ctx, first.TripID, nil)
	require.NoError(t, err)

	second, err := f.trips.StartTrip(ctx, d.DriverID)
	require.NoError(t, err)
	assert.NotEqual(t, first.TripID, second.TripID)
}

func TestFinalizeTrip_EndBeforeStartRejected(t *testing.T) {
	f := newFixture(t)
	_, trip := f.startTrip(t)
	early := trip.StartedAt.Add(-time.Hour)

	_, err := f.trips.FinalizeTrip(context.Background(), trip.TripID, &early)

	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	got, err := f.trips.GetTrip(context.Background(), trip.TripID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())
}

func TestActiveTrip_UnknownDriver(t *testing.T) {
	f := newFixture(t)

	_, err := f.trips.ActiveTrip(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ============================================
// ingestion
// ============================================

func TestIngest_NoAlerts(t *testing.T) {
	f := newFixture(t)
	_, trip := f.startTrip(t)

	res, err := f.readings.Ingest(context.Background(), IngestRequest{TripID: trip.TripID, HeartRate: intPtr(75), NodCount: 2, YawnCount: 4})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Reading.ReadingID)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, f.pub.batches)
}

func TestIngest_CriticalScenarioPersistsAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)

	res, err := f.readings.Ingest(ctx, IngestRequest{TripID: trip.TripID, HeartRate: intPtr(90), NodCount: 6, YawnCount: 10})

	require.NoError(t, err)
	require.Len(t, res.Alerts, 3)
	for _, a := range res.Alerts {
		assert.Equal(t, trip.TripID, a.TripID)
		assert.Equal(t, res.Reading.RecordedAt, a.TriggeredAt)
	}
	assert.Equal(t, domain.AlertCriticalDanger, res.Alerts[2].Kind)

	stored, err := f.alerts.ListAlerts(ctx, ListAlertsRequest{TripID: trip.TripID})
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	require.Len(t, f.pub.batches, 1)
	assert.Len(t, f.pub.batches[0], 3)
}

func TestIngest_PublishFailureDoesNotFailIngest(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("stream down")
	_, trip := f.startTrip(t)

	res, err := f.readings.Ingest(context.Background(), IngestRequest{TripID: trip.TripID, HeartRate: intPtr(40)})

	require.NoError(t, err)
	assert.Len(t, res.Alerts, 1)
}

func TestIngest_InvalidReadingStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)

	_, err := f.readings.Ingest(ctx, IngestRequest{TripID: trip.TripID, NodCount: -1})

	assert.ErrorIs(t, err, domain.ErrInvalidReading)
	list, err := f.readings.ListReadings(ctx, trip.TripID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIngest_FinalizedTripRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)
	_, err := f.trips.FinalizeTrip(ctx, trip.TripID, nil)
	require.NoError(t, err)

	_, err = f.readings.Ingest(ctx, IngestRequest{TripID: trip.TripID, NodCount: 1})

	assert.ErrorIs(t, err, domain.ErrTripClosed)
}

func TestIngest_UnknownTrip(t *testing.T) {
	f := newFixture(t)

	_, err := f.readings.Ingest(context.Background(), IngestRequest{TripID: "nope"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_UsesDeviceTimestamp(t *testing.T) {
	f := newFixture(t)
	_, trip := f.startTrip(t)
	ts := time.Now().Add(-2 * time.Second).Truncate(time.Millisecond)

	res, err := f.readings.Ingest(context.Background(), IngestRequest{TripID: trip.TripID, NodCount: 3, RecordedAt: &ts})

	require.NoError(t, err)
	assert.True(t, ts.Equal(res.Reading.RecordedAt))
	require.Len(t, res.Alerts, 1)
	assert.True(t, ts.Equal(res.Alerts[0].TriggeredAt))
}

// ============================================
// statistics and latest reading
// ============================================

func TestStatistics_ActiveThenFinalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)

	for _, req := range []IngestRequest{
		{TripID: trip.TripID, HeartRate: intPtr(60), NodCount: 1},
		{TripID: trip.TripID, NodCount: 3, YawnCount: 5},
		{TripID: trip.TripID, HeartRate: intPtr(80)},
	} {
		_, err := f.readings.Ingest(ctx, req)
		require.NoError(t, err)
	}

	summary, err := f.trips.Statistics(ctx, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalReadings)
	assert.Equal(t, 3, summary.TotalAlerts)
	assert.Equal(t, 4, summary.TotalNods)
	assert.Equal(t, 5, summary.TotalYawns)
	require.NotNil(t, summary.AvgHeartRate)
	assert.InDelta(t, 70.0, *summary.AvgHeartRate, 1e-9)
	assert.Nil(t, summary.DurationMinutes)

	end := trip.StartedAt.Add(45 * time.Minute)
	_, err = f.trips.FinalizeTrip(ctx, trip.TripID, &end)
	require.NoError(t, err)

	summary, err = f.trips.Statistics(ctx, trip.TripID)
	require.NoError(t, err)
	require.NotNil(t, summary.DurationMinutes)
	assert.InDelta(t, 45.0, *summary.DurationMinutes, 1e-6)
}

func TestLatestReading_CachedThenEvictedOnFinalize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)

	res, err := f.readings.Ingest(ctx, IngestRequest{TripID: trip.TripID, HeartRate: intPtr(70)})
	require.NoError(t, err)

	_, err = f.kv.Get(ctx, store.LatestReadingKey(trip.TripID))
	require.NoError(t, err)

	latest, err := f.trips.LatestReading(ctx, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, res.Reading.ReadingID, latest.ReadingID)

	_, err = f.trips.FinalizeTrip(ctx, trip.TripID, nil)
	require.NoError(t, err)
	_, err = f.kv.Get(ctx, store.LatestReadingKey(trip.TripID))
	assert.ErrorIs(t, err, store.ErrMiss)

	latest, err = f.trips.LatestReading(ctx, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, res.Reading.ReadingID, latest.ReadingID)
}

func TestLatestReading_NoReadings(t *testing.T) {
	f := newFixture(t)
	_, trip := f.startTrip(t)

	_, err := f.trips.LatestReading(context.Background(), trip.TripID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripDetailAndReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, trip := f.startTrip(t)
	_, err := f.readings.Ingest(ctx, IngestRequest{TripID: trip.TripID, HeartRate: intPtr(45)})
	require.NoError(t, err)

	detail, err := f.trips.GetTripDetail(ctx, trip.TripID)
	require.NoError(t, err)
	require.NotNil(t, detail.Driver)
	assert.Equal(t, d.DriverID, detail.Driver.DriverID)
	assert.Len(t, detail.Readings, 1)
	assert.Len(t, detail.Alerts, 1)

	report, err := f.trips.Report(ctx, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalAlerts)
	assert.Len(t, report.Readings, 1)
}

// ============================================
// alerts
// ============================================

func TestCreateManualAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)

	a, err := f.alerts.CreateManualAlert(ctx, CreateAlertRequest{TripID: trip.TripID, Kind: "ROAD_HAZARD", Severity: "high"})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityHigh, a.Severity)

	noSev, err := f.alerts.CreateManualAlert(ctx, CreateAlertRequest{TripID: trip.TripID, Kind: "CHECK_IN"})
	require.NoError(t, err)
	assert.Equal(t, domain.Severity(""), noSev.Severity)

	_, err = f.alerts.CreateManualAlert(ctx, CreateAlertRequest{TripID: "missing", Kind: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.alerts.CreateManualAlert(ctx, CreateAlertRequest{TripID: trip.TripID, Kind: "X", Severity: "URGENT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.alerts.CreateManualAlert(ctx, CreateAlertRequest{TripID: trip.TripID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecentAlerts_DefaultLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, trip := f.startTrip(t)
	for i := 0; i < 12; i++ {
		_, err := f.alerts.CreateManualAlert(ctx, CreateAlertRequest{TripID: trip.TripID, Kind: "CHECK_IN"})
		require.NoError(t, err)
	}

	recent, err := f.alerts.RecentAlerts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 10)

	recent, err = f.alerts.RecentAlerts(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
