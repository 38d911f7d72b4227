package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqttcommon "github.com/Adrieliyo/risk-advisor-backend/common/mqtt"
	"github.com/Adrieliyo/risk-advisor-backend/internal/service"

	"go.uber.org/zap"
)

const ingestTimeout = 10 * time.Second

// Subscriber is the part of the MQTT client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Ingestor stores a reading and evaluates it.
type Ingestor interface {
	Ingest(ctx context.Context, req service.IngestRequest) (*service.IngestResult, error)
}

var _ Subscriber = (*mqttcommon.Client)(nil)
var _ Ingestor = (*service.ReadingService)(nil)

// MQTTConsumer feeds vehicle readings published on MQTT into ingestion.
type MQTTConsumer struct {
	sub      Subscriber
	ingestor Ingestor
	topic    string
	qos      byte
	logger   *zap.Logger

	mu   sync.RWMutex
	base context.Context
}

func NewMQTTConsumer(sub Subscriber, ingestor Ingestor, topic string, qos byte, logger *zap.Logger) *MQTTConsumer {
	return &MQTTConsumer{
		sub:      sub,
		ingestor: ingestor,
		topic:    topic,
		qos:      qos,
		logger:   logger,
		base:     context.Background(),
	}
}

// Start subscribes and blocks until ctx is cancelled.
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if c.topic == "" {
		return fmt.Errorf("reading MQTT topic not configured")
	}
	c.mu.Lock()
	c.base = ctx
	c.mu.Unlock()

	if err := c.sub.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.topic, err)
	}
	c.logger.Info("MQTT consumer started", zap.String("topic", c.topic))

	<-ctx.Done()
	return nil
}

func (c *MQTTConsumer) Stop() error {
	if err := c.sub.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.String("topic", c.topic), zap.Error(err))
		return err
	}
	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage never returns an error for a bad message: it is logged and
// dropped so the broker does not redeliver it.
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	device := deviceFromTopic(topic)
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.String("device_id", device),
		zap.Int("payload_size", len(payload)),
	)

	var req service.IngestRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.logger.Warn("Dropping malformed reading",
			zap.String("device_id", device),
			zap.Error(err),
		)
		return nil
	}

	c.mu.RLock()
	base := c.base
	c.mu.RUnlock()
	ctx, cancel := context.WithTimeout(base, ingestTimeout)
	defer cancel()

	res, err := c.ingestor.Ingest(ctx, req)
	if err != nil {
		c.logger.Warn("Dropping rejected reading",
			zap.String("device_id", device),
			zap.String("trip_id", req.TripID),
			zap.Error(err),
		)
		return nil
	}
	if len(res.Alerts) > 0 {
		c.logger.Info("Reading raised alerts",
			zap.String("device_id", device),
			zap.String("trip_id", req.TripID),
			zap.Int("alerts", len(res.Alerts)),
		)
	}
	return nil
}

// deviceFromTopic returns the second segment of "risk/{device}/readings".
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
