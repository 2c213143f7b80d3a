package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DOTENV_FILE", "")
	t.Setenv("TELEMETRY_POSTGRES_DSN", "postgres://fleet@localhost/fleet")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8084", cfg.HTTPAddress())
	assert.Equal(t, 3*time.Hour, cfg.Alerts.Window)
	assert.Equal(t, 500, cfg.Pipeline.BatchSize)
	assert.False(t, cfg.MQTTEnabled())
	assert.Equal(t, 30*time.Second, cfg.Live.ScopeRefresh)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEMETRY_HTTP_PORT", ":9090")
	t.Setenv("TELEMETRY_ALERT_WINDOW", "90m")
	t.Setenv("TELEMETRY_API_KEYS", "k1,k2")
	t.Setenv("TELEMETRY_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("TELEMETRY_WS_SCOPE_REFRESH", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, 90*time.Minute, cfg.Alerts.Window)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.True(t, cfg.MQTTEnabled())
	assert.Equal(t, 5*time.Second, cfg.Live.ScopeRefresh)
}

func TestLoad_Validation(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.EqualError(t, err, "config: jwt secret required")

	setRequired(t)
	t.Setenv("TELEMETRY_ALERT_WINDOW", "-1h")
	_, err = Load()
	assert.EqualError(t, err, "config: alert window must be positive")

	setRequired(t)
	t.Setenv("TELEMETRY_ALERT_WINDOW", "3h")
	t.Setenv("TELEMETRY_POSTGRES_DSN", " ")
	_, err = Load()
	assert.EqualError(t, err, "config: database dsn required")
}
