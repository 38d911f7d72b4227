package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "risk_advisor", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "risk/+/readings", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "risk:alerts:stream", cfg.Alerts.Stream)
	assert.Equal(t, domain.SeverityHigh, cfg.Alerts.WebhookMinSeverity)
	assert.Equal(t, 10*time.Minute, cfg.LatestReadingTTL)
	assert.Equal(t, domain.DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestFromEnv_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "fleet")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("MQTT_TOPIC", "fleet/+/samples")
	t.Setenv("HEART_RATE_MIN", "45")
	t.Setenv("HEART_RATE_MAX", "130")
	t.Setenv("NOD_THRESHOLD", "4")
	t.Setenv("YAWN_THRESHOLD", "6")
	t.Setenv("ALERT_WEBHOOK_MIN_SEVERITY", "critical")
	t.Setenv("LATEST_READING_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "fleet", cfg.Database.Database)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "fleet/+/samples", cfg.MQTT.Topic)
	assert.Equal(t, domain.Thresholds{HeartRateMin: 45, HeartRateMax: 130, NodThreshold: 4, YawnThreshold: 6}, cfg.Thresholds)
	assert.Equal(t, domain.SeverityCritical, cfg.Alerts.WebhookMinSeverity)
	assert.Equal(t, 30*time.Second, cfg.LatestReadingTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestFromEnv_RejectsInvertedHeartRateRange(t *testing.T) {
	os.Clearenv()
	t.Setenv("HEART_RATE_MIN", "130")
	t.Setenv("HEART_RATE_MAX", "120")

	_, err := fromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid thresholds")
}

func TestFromEnv_RejectsMalformedThreshold(t *testing.T) {
	os.Clearenv()
	t.Setenv("NOD_THRESHOLD", "three")

	_, err := fromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOD_THRESHOLD")
}

func TestFromEnv_RejectsZeroYawnThreshold(t *testing.T) {
	os.Clearenv()
	t.Setenv("YAWN_THRESHOLD", "0")

	_, err := fromEnv()

	assert.Error(t, err)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NOD_THRESHOLD=7\nHTTP_ADDR=:9090\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Thresholds.NodThreshold)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestGetEnv(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, "default-value", getEnv("TEST_KEY", "default-value"))

	t.Setenv("TEST_KEY", "set")
	assert.Equal(t, "set", getEnv("TEST_KEY", "default-value"))
}
