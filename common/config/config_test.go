package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnvAndDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "risk")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	c := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Database: "x", SSLMode: "disable", MaxConns: 20}
	c.LoadFromEnv("DB")

	assert.Equal(t, 20, c.MaxConns)
	assert.Equal(t, "host=db.internal port=6543 user=postgres password=pw dbname=risk sslmode=disable", c.GetDSN())
}

func TestMQTTConfig_QoSRange(t *testing.T) {
	t.Setenv("MQTT_QOS", "5")
	t.Setenv("MQTT_TOPIC", "fleet/+/readings")

	c := MQTTConfig{QoS: 1}
	c.LoadFromEnv("MQTT")

	assert.Equal(t, byte(1), c.QoS)
	assert.Equal(t, "fleet/+/readings", c.Topic)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")

	var c RedisConfig
	c.LoadFromEnv("REDIS")

	assert.Equal(t, "cache:6379", c.Addr)
	assert.Equal(t, 2, c.DB)
}
