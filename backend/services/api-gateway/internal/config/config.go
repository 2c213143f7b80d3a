package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "fleetconsole/backend/libs/config"
)

// Config defines gateway configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"API_GATEWAY_HTTP_PORT"`
	} `yaml:"http"`
	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
	} `yaml:"jwt"`
	Services struct {
		AuthURL      string `yaml:"authUrl" env:"AUTH_SERVICE_URL"`
		FleetURL     string `yaml:"fleetUrl" env:"FLEET_SERVICE_URL"`
		TelemetryURL string `yaml:"telemetryUrl" env:"TELEMETRY_SERVICE_URL"`
	} `yaml:"services"`
	HTTPClient struct {
		Timeout time.Duration `yaml:"timeout" env:"API_GATEWAY_HTTP_TIMEOUT"`
	} `yaml:"httpClient"`
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Services.AuthURL = "http://localhost:8081"
	cfg.Services.FleetURL = "http://localhost:8082"
	cfg.Services.TelemetryURL = "http://localhost:8084"
	cfg.HTTPClient.Timeout = 5 * time.Second

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(c.Services.AuthURL) == "" {
		return errors.New("config: auth service url required")
	}
	if strings.TrimSpace(c.Services.FleetURL) == "" {
		return errors.New("config: fleet service url required")
	}
	if strings.TrimSpace(c.Services.TelemetryURL) == "" {
		return errors.New("config: telemetry service url required")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns http client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPClient.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.HTTPClient.Timeout
}
