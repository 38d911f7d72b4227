// Package notify fans persisted alerts out to live consumers. Delivery is
// best effort; callers log failures and carry on.
package notify

import (
	"context"
	"errors"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"go.uber.org/zap"
)

// Publisher delivers a batch of alerts raised by one reading.
type Publisher interface {
	Publish(ctx context.Context, alerts []domain.Alert) error
}

// MultiPublisher calls every publisher and joins their errors.
type MultiPublisher struct {
	publishers []Publisher
	logger     *zap.Logger
}

func NewMultiPublisher(logger *zap.Logger, publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers, logger: logger}
}

func (m *MultiPublisher) Publish(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, alerts); err != nil {
			m.logger.Warn("Alert publish failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards alerts.
type Nop struct{}

func (Nop) Publish(context.Context, []domain.Alert) error { return nil }
