package env

import (
	"fmt"
	"os"
	"strings"

	"gacha_backend/internal/config"
	"gacha_backend/internal/model"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type drawPathEnv struct {
	Path string `env:"DRAW_CONFIG_PATH" envDefault:"config.yaml"`
}

type drawFile struct {
	Draw struct {
		Probabilities map[string]float64 `yaml:"probabilities"`
		PityThreshold int                `yaml:"pity_threshold"`
		Batch         struct {
			Size          int                `yaml:"size"`
			MinimumRarity string             `yaml:"minimum_rarity"`
			Override      map[string]float64 `yaml:"override"`
		} `yaml:"batch"`
	} `yaml:"draw"`
	Catalog map[string][]struct {
		Title    string `yaml:"title"`
		Category string `yaml:"category"`
	} `yaml:"catalog"`
}

type drawConfig struct {
	draw    model.DrawConfig
	catalog map[model.Rarity][]model.Identity
}

// NewDrawConfig читает YAML по пути из DRAW_CONFIG_PATH
func NewDrawConfig() (config.DrawConfig, error) {
	var raw drawPathEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse draw config env: %w", err)
	}
	return NewDrawConfigFromYAML(raw.Path)
}

// NewDrawConfigFromYAML читает конфигурацию розыгрыша из файла.
// Любая ошибка содержимого оборачивает model.ErrConfig.
func NewDrawConfigFromYAML(path string) (config.DrawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draw config: %w", err)
	}
	return ParseDrawConfig(data)
}

func ParseDrawConfig(data []byte) (config.DrawConfig, error) {
	var raw drawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse draw config yaml: %v", model.ErrConfig, err)
	}

	probs, err := toDistribution(raw.Draw.Probabilities)
	if err != nil {
		return nil, fmt.Errorf("probabilities: %w", err)
	}
	override, err := toDistribution(raw.Draw.Batch.Override)
	if err != nil {
		return nil, fmt.Errorf("batch.override: %w", err)
	}
	minimum, err := model.ParseRarity(raw.Draw.Batch.MinimumRarity)
	if err != nil {
		return nil, fmt.Errorf("%w: batch.minimum_rarity: %v", model.ErrConfig, err)
	}

	draw := model.DrawConfig{
		Probabilities: probs,
		PityThreshold: raw.Draw.PityThreshold,
		Batch: model.BatchPolicy{
			Size:          raw.Draw.Batch.Size,
			MinimumRarity: minimum,
			Override:      override,
		},
	}
	if err := draw.Validate(); err != nil {
		return nil, err
	}

	catalog := make(map[model.Rarity][]model.Identity, len(raw.Catalog))
	for tier, items := range raw.Catalog {
		rarity, err := model.ParseRarity(tier)
		if err != nil {
			return nil, fmt.Errorf("%w: catalog: %v", model.ErrConfig, err)
		}
		for i, item := range items {
			if strings.TrimSpace(item.Title) == "" {
				return nil, fmt.Errorf("%w: catalog.%s[%d]: empty title", model.ErrConfig, tier, i)
			}
			catalog[rarity] = append(catalog[rarity], model.Identity{
				Title:    item.Title,
				Category: item.Category,
				Rarity:   rarity,
			})
		}
	}

	return &drawConfig{draw: draw, catalog: catalog}, nil
}

func toDistribution(raw map[string]float64) (model.Distribution, error) {
	dist := make(model.Distribution, len(raw))
	for name, p := range raw {
		rarity, err := model.ParseRarity(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrConfig, err)
		}
		dist[rarity] = p
	}
	return dist, nil
}

func (cfg *drawConfig) Draw() model.DrawConfig {
	return cfg.draw
}

func (cfg *drawConfig) Catalog() map[model.Rarity][]model.Identity {
	return cfg.catalog
}
