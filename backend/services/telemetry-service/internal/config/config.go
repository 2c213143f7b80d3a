package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fleetconsole/backend/libs/config"
)

// Config defines telemetry service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"TELEMETRY_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN      string `yaml:"dsn" env:"TELEMETRY_POSTGRES_DSN"`
		MaxConns int32  `yaml:"maxConns" env:"TELEMETRY_POSTGRES_MAX_CONNS"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"TELEMETRY_REDIS_ADDR"`
		Password string `yaml:"password" env:"TELEMETRY_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"TELEMETRY_REDIS_DB"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret   string        `yaml:"jwtSecret" env:"JWT_SECRET"`
		APIKeys     []string      `yaml:"apiKeys" env:"TELEMETRY_API_KEYS"`
		KeyCacheTTL time.Duration `yaml:"keyCacheTTL" env:"TELEMETRY_KEY_CACHE_TTL"`
	} `yaml:"auth"`
	Alerts struct {
		Window time.Duration `yaml:"window" env:"TELEMETRY_ALERT_WINDOW"`
	} `yaml:"alerts"`
	Pipeline struct {
		DBBuffer      int           `yaml:"dbBuffer" env:"TELEMETRY_DB_BUFFER"`
		FeedBuffer    int           `yaml:"feedBuffer" env:"TELEMETRY_FEED_BUFFER"`
		BatchSize     int           `yaml:"batchSize" env:"TELEMETRY_BATCH_SIZE"`
		FlushInterval time.Duration `yaml:"flushInterval" env:"TELEMETRY_FLUSH_INTERVAL"`
	} `yaml:"pipeline"`
	MQTT struct {
		Broker   string `yaml:"broker" env:"TELEMETRY_MQTT_BROKER"`
		ClientID string `yaml:"clientId" env:"TELEMETRY_MQTT_CLIENT_ID"`
		Username string `yaml:"username" env:"TELEMETRY_MQTT_USERNAME"`
		Password string `yaml:"password" env:"TELEMETRY_MQTT_PASSWORD"`
		QoS      uint8  `yaml:"qos" env:"TELEMETRY_MQTT_QOS"`
	} `yaml:"mqtt"`
	Live struct {
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"TELEMETRY_WS_WRITE_TIMEOUT"`
		ScopeRefresh time.Duration `yaml:"scopeRefresh" env:"TELEMETRY_WS_SCOPE_REFRESH"`
	} `yaml:"live"`
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8084"
	cfg.Database.MaxConns = 10
	cfg.Redis.Addr = "localhost:6379"
	cfg.Auth.KeyCacheTTL = 5 * time.Minute
	cfg.Alerts.Window = 3 * time.Hour
	cfg.Pipeline.DBBuffer = 10000
	cfg.Pipeline.FeedBuffer = 10000
	cfg.Pipeline.BatchSize = 500
	cfg.Pipeline.FlushInterval = time.Second
	cfg.MQTT.ClientID = "telemetry-service"
	cfg.MQTT.QoS = 1
	cfg.Live.WriteTimeout = 10 * time.Second
	cfg.Live.ScopeRefresh = 30 * time.Second

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis addr required")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: jwt secret required")
	}
	if c.Alerts.Window <= 0 {
		return errors.New("config: alert window must be positive")
	}
	if c.MQTT.QoS > 2 {
		return errors.New("config: mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8084"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// MQTTEnabled reports whether a broker is configured.
func (c *Config) MQTTEnabled() bool {
	return strings.TrimSpace(c.MQTT.Broker) != ""
}
