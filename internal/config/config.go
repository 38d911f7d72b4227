package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "github.com/Adrieliyo/risk-advisor-backend/common/config"
	"github.com/Adrieliyo/risk-advisor-backend/internal/domain"

	"github.com/joho/godotenv"
)

// Config is the risk-advisor service configuration.
type Config struct {
	App struct {
		Name    string
		Version string
	}
	HTTP struct {
		Addr           string
		AllowedOrigins []string
	}
	DBEnabled    bool
	Database     commoncfg.DatabaseConfig
	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	MQTTEnabled  bool
	MQTT         commoncfg.MQTTConfig
	Alerts       struct {
		Stream             string
		WebhookURL         string
		WebhookMinSeverity domain.Severity
	}
	LatestReadingTTL time.Duration
	Thresholds       domain.Thresholds
	Log              struct {
		Level  string
		Format string
	}
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.App.Name = getEnv("APP_NAME", "risk-advisor")
	cfg.App.Version = getEnv("APP_VERSION", "1.0.0")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	cfg.DBEnabled = getBool("DB_ENABLED", false)
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "risk_advisor",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getBool("REDIS_ENABLED", false)
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTTEnabled = getBool("MQTT_ENABLED", false)
	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "risk-advisor",
		Topic:    "risk/+/readings",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Alerts.Stream = getEnv("ALERT_STREAM", "risk:alerts:stream")
	cfg.Alerts.WebhookURL = getEnv("ALERT_WEBHOOK_URL", "")
	sev, err := domain.ParseSeverity(strings.ToUpper(getEnv("ALERT_WEBHOOK_MIN_SEVERITY", "HIGH")))
	if err != nil {
		return nil, fmt.Errorf("ALERT_WEBHOOK_MIN_SEVERITY: %w", err)
	}
	cfg.Alerts.WebhookMinSeverity = sev

	ttl, err := time.ParseDuration(getEnv("LATEST_READING_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("LATEST_READING_TTL: %w", err)
	}
	cfg.LatestReadingTTL = ttl

	def := domain.DefaultThresholds()
	if cfg.Thresholds.HeartRateMin, err = getInt("HEART_RATE_MIN", def.HeartRateMin); err != nil {
		return nil, err
	}
	if cfg.Thresholds.HeartRateMax, err = getInt("HEART_RATE_MAX", def.HeartRateMax); err != nil {
		return nil, err
	}
	if cfg.Thresholds.NodThreshold, err = getInt("NOD_THRESHOLD", def.NodThreshold); err != nil {
		return nil, err
	}
	if cfg.Thresholds.YawnThreshold, err = getInt("YAWN_THRESHOLD", def.YawnThreshold); err != nil {
		return nil, err
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

// getInt fails on malformed values so a typo in a threshold is not silently
// replaced by the default.
func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return i, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
