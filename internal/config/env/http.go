package env

import (
	"fmt"
	"time"

	"gacha_backend/internal/config"

	"github.com/caarlos0/env/v11"
)

type httpEnv struct {
	Address         string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type httpConfig struct {
	address         string
	readTimeout     time.Duration
	shutdownTimeout time.Duration
}

func NewHTTPConfig() (config.HTTPConfig, error) {
	var raw httpEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse http env: %w", err)
	}
	if raw.Address == "" {
		return nil, fmt.Errorf("http address not found")
	}

	return &httpConfig{
		address:         raw.Address,
		readTimeout:     raw.ReadTimeout,
		shutdownTimeout: raw.ShutdownTimeout,
	}, nil
}

func (cfg *httpConfig) Address() string {
	return cfg.address
}

func (cfg *httpConfig) ReadTimeout() time.Duration {
	return cfg.readTimeout
}

func (cfg *httpConfig) ShutdownTimeout() time.Duration {
	return cfg.shutdownTimeout
}
