package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"

	"go.uber.org/zap"
)

const defaultRecentAlerts = 10

// AlertService queries alerts and records operator alerts.
type AlertService struct {
	repo   repository.Store
	logger *zap.Logger
}

func NewAlertService(repo repository.Store, logger *zap.Logger) *AlertService {
	return &AlertService{repo: repo, logger: logger}
}

// CreateAlertRequest records a manual alert. Kind is free text and is not
// checked against the rule table; Severity is optional.
type CreateAlertRequest struct {
	TripID   string `json:"trip_id"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
}

// ListAlertsRequest lists alerts newest first, optionally for one trip.
type ListAlertsRequest struct {
	TripID string
	Skip   int
	Limit  int
}

func (s *AlertService) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]domain.Alert, error) {
	page, err := normalizePage(req.Skip, req.Limit, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAlerts(ctx, repository.AlertFilter{TripID: req.TripID, Page: page})
}

// RecentAlerts returns the newest alerts across all trips.
func (s *AlertService) RecentAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	page, err := normalizePage(0, limit, defaultRecentAlerts)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAlerts(ctx, repository.AlertFilter{Page: page})
}

func (s *AlertService) GetAlert(ctx context.Context, alertID string) (*domain.Alert, error) {
	return s.repo.GetAlert(ctx, alertID)
}

func (s *AlertService) CreateManualAlert(ctx context.Context, req CreateAlertRequest) (*domain.Alert, error) {
	if req.TripID == "" {
		return nil, fmt.Errorf("%w: trip_id is required", domain.ErrInvalidInput)
	}
	kind, err := validateName("kind", req.Kind)
	if err != nil {
		return nil, err
	}
	var sev domain.Severity
	if strings.TrimSpace(req.Severity) != "" {
		if sev, err = domain.ParseSeverity(strings.ToUpper(strings.TrimSpace(req.Severity))); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}

	if _, err := s.repo.GetTrip(ctx, req.TripID); err != nil {
		return nil, err
	}
	a, err := s.repo.CreateAlert(ctx, domain.Alert{
		TripID:   req.TripID,
		Kind:     domain.AlertKind(kind),
		Severity: sev,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Manual alert recorded",
		zap.String("alert_id", a.AlertID),
		zap.String("trip_id", a.TripID),
		zap.String("kind", string(a.Kind)),
	)
	return a, nil
}
