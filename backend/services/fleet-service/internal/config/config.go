package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fleetconsole/backend/libs/config"
)

// Config defines fleet service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"FLEET_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"FLEET_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr        string        `yaml:"addr" env:"FLEET_REDIS_ADDR"`
		Password    string        `yaml:"password" env:"FLEET_REDIS_PASSWORD"`
		DB          int           `yaml:"db" env:"FLEET_REDIS_DB"`
		LocationTTL time.Duration `yaml:"locationTTL" env:"FLEET_LOCATION_TTL"`
	} `yaml:"redis"`
	Auth struct {
		BaseURL       string        `yaml:"baseURL" env:"FLEET_AUTH_URL"`
		InternalToken string        `yaml:"internalToken" env:"AUTH_INTERNAL_TOKEN"`
		Timeout       time.Duration `yaml:"timeout" env:"FLEET_AUTH_TIMEOUT"`
	} `yaml:"auth"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8082"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LocationTTL = 15 * time.Second
	cfg.Auth.BaseURL = "http://localhost:8081"
	cfg.Auth.Timeout = 5 * time.Second

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
	if strings.TrimSpace(c.Auth.BaseURL) == "" {
		return errors.New("config: auth base url required")
	}
	if c.Redis.LocationTTL <= 0 {
		return errors.New("config: location ttl must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8082"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
