package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookPayload is the JSON body posted to the operator webhook.
type WebhookPayload struct {
	Source string         `json:"source"`
	SentAt time.Time      `json:"sent_at"`
	Alerts []domain.Alert `json:"alerts"`
}

// WebhookNotifier posts alerts at or above a minimum severity.
type WebhookNotifier struct {
	httpClient  *resty.Client
	url         string
	minSeverity domain.Severity
	source      string
	logger      *zap.Logger
}

var _ Publisher = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, minSeverity domain.Severity, source string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if minSeverity.Rank() == 0 {
		minSeverity = domain.SeverityHigh
	}
	return &WebhookNotifier{
		httpClient:  client,
		url:         url,
		minSeverity: minSeverity,
		source:      source,
		logger:      logger,
	}
}

func (n *WebhookNotifier) Publish(ctx context.Context, alerts []domain.Alert) error {
	selected := make([]domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Severity.Rank() >= n.minSeverity.Rank() {
			selected = append(selected, a)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(WebhookPayload{Source: n.source, SentAt: time.Now().UTC(), Alerts: selected}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to post alerts to webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Info("Alerts posted to webhook",
		zap.Int("count", len(selected)),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
