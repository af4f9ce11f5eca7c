package env

import (
	"fmt"
	"strings"
	"time"

	"gacha_backend/internal/config"

	"github.com/caarlos0/env/v11"
)

type persistEnv struct {
	MaxAttempts uint          `env:"PERSIST_MAX_ATTEMPTS" envDefault:"3"`
	Backoff     time.Duration `env:"PERSIST_BACKOFF" envDefault:"50ms"`
}

type persistConfig struct {
	maxAttempts uint
	backoff     time.Duration
}

func NewPersistConfig() (config.PersistConfig, error) {
	var raw persistEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse persist env: %w", err)
	}
	if raw.MaxAttempts == 0 {
		return nil, fmt.Errorf("PERSIST_MAX_ATTEMPTS must be >= 1")
	}
	if raw.Backoff <= 0 {
		return nil, fmt.Errorf("PERSIST_BACKOFF must be positive")
	}
	return &persistConfig{maxAttempts: raw.MaxAttempts, backoff: raw.Backoff}, nil
}

func (cfg *persistConfig) MaxAttempts() uint {
	return cfg.maxAttempts
}

func (cfg *persistConfig) Backoff() time.Duration {
	return cfg.backoff
}

type logEnv struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

type logConfig struct {
	level  string
	pretty bool
}

func NewLogConfig() (config.LogConfig, error) {
	var raw logEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse log env: %w", err)
	}
	return &logConfig{level: strings.ToLower(raw.Level), pretty: raw.Pretty}, nil
}

func (cfg *logConfig) Level() string {
	return cfg.level
}

func (cfg *logConfig) Pretty() bool {
	return cfg.pretty
}

type telemetryEnv struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"gacha-backend"`
}

type telemetryConfig struct {
	endpoint    string
	serviceName string
}

func NewTelemetryConfig() (config.TelemetryConfig, error) {
	var raw telemetryEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse telemetry env: %w", err)
	}
	return &telemetryConfig{endpoint: raw.Endpoint, serviceName: raw.ServiceName}, nil
}

func (cfg *telemetryConfig) Endpoint() string {
	return cfg.endpoint
}

func (cfg *telemetryConfig) ServiceName() string {
	return cfg.serviceName
}
