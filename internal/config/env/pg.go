package env

import (
	"errors"
	"fmt"
	"strings"

	"gacha_backend/internal/config"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type storageEnv struct {
	Driver     string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"gacha.db"`
}

type storageConfig struct {
	driver     string
	sqlitePath string
}

func NewStorageConfig() (config.StorageConfig, error) {
	var raw storageEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse storage env: %w", err)
	}

	driver := strings.ToLower(strings.TrimSpace(raw.Driver))
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", raw.Driver)
	}

	return &storageConfig{
		driver:     driver,
		sqlitePath: raw.SQLitePath,
	}, nil
}

func (cfg *storageConfig) Driver() string {
	return cfg.driver
}

func (cfg *storageConfig) SQLitePath() string {
	return cfg.sqlitePath
}

type pgEnv struct {
	DSN      string `env:"PG_DSN"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

type pgConfig struct {
	dsn      string
	maxConns int
}

func NewPGConfig() (config.PGConfig, error) {
	var raw pgEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse pg env: %w", err)
	}
	if len(raw.DSN) == 0 {
		return nil, errors.New("pg dsn not found")
	}

	return &pgConfig{
		dsn:      raw.DSN,
		maxConns: raw.MaxConns,
	}, nil
}

func (cfg *pgConfig) DSN() string {
	return cfg.dsn
}

func (cfg *pgConfig) MaxConns() int {
	return cfg.maxConns
}
