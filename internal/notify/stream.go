package notify

import (
	"context"
	"fmt"

	commonredis "github.com/Adrieliyo/risk-advisor-backend/common/redis"
	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/go-redis/redis/v8"
)

// DefaultAlertStream is the Redis stream alerts are appended to.
const DefaultAlertStream = "risk:alerts:stream"

const streamMaxLen = 10000

// StreamPublisher appends one stream entry per alert.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

var _ Publisher = (*StreamPublisher)(nil)

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultAlertStream
	}
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, alerts []domain.Alert) error {
	for _, a := range alerts {
		if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, streamMaxLen, a); err != nil {
			return fmt.Errorf("failed to publish alert %s to %s: %w", a.AlertID, p.stream, err)
		}
	}
	return nil
}
