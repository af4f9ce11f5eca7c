package env

import (
	"fmt"

	"gacha_backend/internal/config"

	"github.com/caarlos0/env/v11"
)

type jwtEnv struct {
	AccessToken string `env:"ACCESS_TOKEN"`
}

type jwtConfig struct {
	accessTokenSecretKey string
}

// NewJWTConfig - секрет для проверки токенов доступа. Сами токены выпускает сервис авторизации.
func NewJWTConfig() (config.JWTConfig, error) {
	var raw jwtEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse jwt env: %w", err)
	}
	if len(raw.AccessToken) == 0 {
		return nil, fmt.Errorf("access token secret key not found")
	}

	return &jwtConfig{
		accessTokenSecretKey: raw.AccessToken,
	}, nil
}

func (j *jwtConfig) AccessTokenSecretKey() []byte {
	return []byte(j.accessTokenSecretKey)
}
