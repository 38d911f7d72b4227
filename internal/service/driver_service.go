package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// DriverService manages the driver registry.
type DriverService struct {
	repo   repository.DriversRepository
	logger *zap.Logger
}

func NewDriverService(repo repository.DriversRepository, logger *zap.Logger) *DriverService {
	return &DriverService{repo: repo, logger: logger}
}

// CreateDriverRequest creates a driver. Active defaults to true.
type CreateDriverRequest struct {
	Name             string  `json:"name"`
	MedicalCondition *string `json:"medical_condition"`
	RiskWindow       *string `json:"risk_window"`
	Active           *bool   `json:"active"`
}

// UpdateDriverRequest changes only the fields that are set.
type UpdateDriverRequest struct {
	Name             *string `json:"name"`
	MedicalCondition *string `json:"medical_condition"`
	RiskWindow       *string `json:"risk_window"`
	Active           *bool   `json:"active"`
}

// ListDriversRequest lists drivers, optionally only active or inactive ones.
type ListDriversRequest struct {
	Active *bool
	Skip   int
	Limit  int
}

func (s *DriverService) CreateDriver(ctx context.Context, req CreateDriverRequest) (*domain.Driver, error) {
	name, err := validateName("name", req.Name)
	if err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	d, err := s.repo.CreateDriver(ctx, domain.Driver{
		Name:             name,
		MedicalCondition: req.MedicalCondition,
		RiskWindow:       req.RiskWindow,
		Active:           active,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Driver created", zap.String("driver_id", d.DriverID))
	return d, nil
}

func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	return s.repo.GetDriver(ctx, driverID)
}

func (s *DriverService) ListDrivers(ctx context.Context, req ListDriversRequest) ([]domain.Driver, error) {
	page, err := normalizePage(req.Skip, req.Limit, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDrivers(ctx, repository.DriverFilter{Active: req.Active, Page: page})
}

func (s *DriverService) UpdateDriver(ctx context.Context, driverID string, req UpdateDriverRequest) (*domain.Driver, error) {
	patch := repository.DriverPatch{
		MedicalCondition: req.MedicalCondition,
		RiskWindow:       req.RiskWindow,
		Active:           req.Active,
	}
	if req.Name != nil {
		name, err := validateName("name", *req.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	return s.repo.UpdateDriver(ctx, driverID, patch)
}

func (s *DriverService) DeleteDriver(ctx context.Context, driverID string) error {
	if err := s.repo.DeleteDriver(ctx, driverID); err != nil {
		return err
	}
	s.logger.Info("Driver deleted", zap.String("driver_id", driverID))
	return nil
}

// validateName trims v and checks 1..MaxNameLength characters.
func validateName(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n == 0 {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	if n > domain.MaxNameLength {
		return "", fmt.Errorf("%w: %s exceeds %d characters", domain.ErrInvalidInput, field, domain.MaxNameLength)
	}
	return v, nil
}

// normalizePage applies the default limit and rejects out-of-range values.
func normalizePage(skip, limit, def int) (repository.Page, error) {
	if skip < 0 {
		return repository.Page{}, fmt.Errorf("%w: skip must be >= 0", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = def
	}
	if limit > maxListLimit {
		return repository.Page{}, fmt.Errorf("%w: limit must be <= %d", domain.ErrInvalidInput, maxListLimit)
	}
	return repository.Page{Skip: skip, Limit: limit}, nil
}
