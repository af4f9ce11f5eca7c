package config

import (
	"time"

	"gacha_backend/internal/model"

	"github.com/joho/godotenv"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

// DrawConfig - вероятности, гарант и каталог предметов
type DrawConfig interface {
	Draw() model.DrawConfig
	Catalog() map[model.Rarity][]model.Identity
}

type HTTPConfig interface {
	Address() string
	ReadTimeout() time.Duration
	ShutdownTimeout() time.Duration
}

// StorageConfig - какое хранилище поднимать: postgres или sqlite
type StorageConfig interface {
	Driver() string
	SQLitePath() string
}

type PGConfig interface {
	DSN() string
	MaxConns() int
}

type JWTConfig interface {
	AccessTokenSecretKey() []byte
}

// PersistConfig - повторы транзакции записи партии
type PersistConfig interface {
	MaxAttempts() uint
	Backoff() time.Duration
}

type NotifierConfig interface {
	Kind() string
	RabbitURL() string
	RabbitExchange() string
	KafkaBrokers() []string
	KafkaTopic() string
	Timeout() time.Duration
}

type LogConfig interface {
	Level() string
	Pretty() bool
}

// TelemetryConfig - пустой Endpoint отключает трассировку
type TelemetryConfig interface {
	Endpoint() string
	ServiceName() string
}
