package catalog

import (
	"fmt"

	"gacha_backend/internal/engine"
	"gacha_backend/internal/model"
)

// Static - неизменяемый каталог из конфигурации, предмет внутри редкости выбирается равновероятно
type Static struct {
	items map[model.Rarity][]model.Identity
}

// NewStatic проверяет, что для каждой редкости, которая может выпасть, есть хотя бы один предмет
func NewStatic(items map[model.Rarity][]model.Identity, cfg model.DrawConfig) (*Static, error) {
	copied := make(map[model.Rarity][]model.Identity, len(items))
	for r, list := range items {
		for _, item := range list {
			if item.Rarity != r {
				return nil, fmt.Errorf("%w: catalog item %q listed under %s has rarity %s", model.ErrConfig, item.Title, r, item.Rarity)
			}
		}
		copied[r] = append([]model.Identity(nil), list...)
	}

	for _, r := range reachable(cfg) {
		if len(copied[r]) == 0 {
			return nil, fmt.Errorf("%w: catalog has no items for reachable rarity %s", model.ErrConfig, r)
		}
	}
	return &Static{items: copied}, nil
}

// Lookup - случайный предмет заданной редкости
func (c *Static) Lookup(rarity model.Rarity, rng engine.RandomSource) (model.Identity, error) {
	list := c.items[rarity]
	if len(list) == 0 {
		return model.Identity{}, fmt.Errorf("no catalog items for %s", rarity)
	}
	idx := int(rng.Float64() * float64(len(list)))
	if idx >= len(list) {
		idx = len(list) - 1
	}
	return list[idx], nil
}

// Size - количество предметов в редкости
func (c *Static) Size(rarity model.Rarity) int {
	return len(c.items[rarity])
}

// reachable - редкости, которые может выдать движок: из основной таблицы, из замены партии и высшая по гаранту
func reachable(cfg model.DrawConfig) []model.Rarity {
	out := make([]model.Rarity, 0, len(model.Rarities()))
	for _, r := range model.Rarities() {
		if cfg.Probabilities[r] > 0 || cfg.Batch.Override[r] > 0 || r.IsTop() {
			out = append(out, r)
		}
	}
	return out
}
