package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/evaluator"
	"github.com/Adrieliyo/risk-advisor-backend/internal/lifecycle"
	"github.com/Adrieliyo/risk-advisor-backend/internal/notify"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"
	"github.com/Adrieliyo/risk-advisor-backend/internal/store"

	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// ReadingService ingests readings and runs them through the rule engine.
type ReadingService struct {
	repo       repository.Store
	lifecycle  *lifecycle.Manager
	thresholds domain.Thresholds
	kv         store.KV
	latestTTL  time.Duration
	publisher  notify.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewReadingService(
	repo repository.Store,
	lc *lifecycle.Manager,
	thresholds domain.Thresholds,
	kv store.KV,
	latestTTL time.Duration,
	publisher notify.Publisher,
	logger *zap.Logger,
) *ReadingService {
	return &ReadingService{
		repo:       repo,
		lifecycle:  lc,
		thresholds: thresholds,
		kv:         kv,
		latestTTL:  latestTTL,
		publisher:  publisher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IngestRequest is one reading as received from HTTP or MQTT.
type IngestRequest struct {
	TripID        string     `json:"trip_id"`
	HeartRate     *int       `json:"heart_rate"`
	NodCount      int        `json:"nod_count"`
	YawnCount     int        `json:"yawn_count"`
	EyelidClosure *float64   `json:"eyelid_closure"`
	RecordedAt    *time.Time `json:"timestamp"`
}

// IngestResult is the stored reading plus the alerts it raised.
type IngestResult struct {
	Reading domain.SensorReading `json:"reading"`
	Alerts  []domain.Alert       `json:"alerts"`
}

// Ingest admits, evaluates and stores a reading, then stores its alerts.
// Caching and publishing afterwards are best effort.
func (s *ReadingService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.TripID == "" {
		return nil, fmt.Errorf("%w: trip_id is required", domain.ErrInvalidInput)
	}
	trip, err := s.lifecycle.RequireActive(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	reading := domain.SensorReading{
		TripID:        trip.TripID,
		RecordedAt:    s.now(),
		HeartRate:     req.HeartRate,
		NodCount:      req.NodCount,
		YawnCount:     req.YawnCount,
		EyelidClosure: req.EyelidClosure,
	}
	if req.RecordedAt != nil && !req.RecordedAt.IsZero() {
		reading.RecordedAt = req.RecordedAt.UTC()
	}

	descriptors, err := evaluator.Evaluate(reading, s.thresholds)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.PersistReading(ctx, reading)
	if err != nil {
		return nil, err
	}
	alerts, err := s.repo.PersistAlerts(ctx, stored.TripID, stored.RecordedAt, descriptors)
	if err != nil {
		return nil, fmt.Errorf("reading %s stored but alerts failed: %w", stored.ReadingID, err)
	}

	s.cacheLatest(ctx, *stored)

	if len(alerts) > 0 {
		s.logger.Info("Alerts raised",
			zap.String("trip_id", stored.TripID),
			zap.String("reading_id", stored.ReadingID),
			zap.Int("count", len(alerts)),
		)
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		if err := s.publisher.Publish(pubCtx, alerts); err != nil {
			s.logger.Warn("Alert fan-out incomplete", zap.String("trip_id", stored.TripID), zap.Error(err))
		}
		cancel()
	}

	return &IngestResult{Reading: *stored, Alerts: alerts}, nil
}

func (s *ReadingService) cacheLatest(ctx context.Context, r domain.SensorReading) {
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, store.LatestReadingKey(r.TripID), string(b), s.latestTTL); err != nil {
		s.logger.Warn("Failed to cache latest reading", zap.String("trip_id", r.TripID), zap.Error(err))
	}
}

func (s *ReadingService) GetReading(ctx context.Context, readingID string) (*domain.SensorReading, error) {
	return s.repo.GetReading(ctx, readingID)
}

// ListReadings returns a trip's readings newest first.
func (s *ReadingService) ListReadings(ctx context.Context, tripID string, skip, limit int) ([]domain.SensorReading, error) {
	page, err := normalizePage(skip, limit, defaultListLimit)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.repo.ListReadings(ctx, tripID, page)
}
