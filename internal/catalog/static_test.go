package catalog

import (
	"errors"
	"testing"

	"gacha_backend/internal/engine"
	"gacha_backend/internal/model"
)

func drawConfig() model.DrawConfig {
	return model.DrawConfig{
		Probabilities: model.Distribution{model.Common: 0.9, model.Legendary: 0.1},
		PityThreshold: 10,
		Batch: model.BatchPolicy{
			Size:          10,
			MinimumRarity: model.Epic,
			Override:      model.Distribution{model.Epic: 1},
		},
	}
}

func TestNewStatic_RequiresReachableTiers(t *testing.T) {
	items := map[model.Rarity][]model.Identity{
		model.Common:    {{Title: "Pebble", Category: "misc", Rarity: model.Common}},
		model.Legendary: {{Title: "Crown", Category: "misc", Rarity: model.Legendary}},
	}
	if _, err := NewStatic(items, drawConfig()); !errors.Is(err, model.ErrConfig) {
		t.Fatalf("NewStatic without epic items = %v, want ErrConfig", err)
	}

	items[model.Epic] = []model.Identity{{Title: "Orb", Category: "misc", Rarity: model.Epic}}
	if _, err := NewStatic(items, drawConfig()); err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
}

func TestNewStatic_RejectsMislabeledItem(t *testing.T) {
	items := map[model.Rarity][]model.Identity{
		model.Common:    {{Title: "Pebble", Rarity: model.Rare}},
		model.Epic:      {{Title: "Orb", Rarity: model.Epic}},
		model.Legendary: {{Title: "Crown", Rarity: model.Legendary}},
	}
	if _, err := NewStatic(items, drawConfig()); !errors.Is(err, model.ErrConfig) {
		t.Fatalf("NewStatic = %v, want ErrConfig", err)
	}
}

func TestStatic_LookupUsesRNG(t *testing.T) {
	items := map[model.Rarity][]model.Identity{
		model.Common: {
			{Title: "A", Rarity: model.Common},
			{Title: "B", Rarity: model.Common},
			{Title: "C", Rarity: model.Common},
		},
		model.Epic:      {{Title: "Orb", Rarity: model.Epic}},
		model.Legendary: {{Title: "Crown", Rarity: model.Legendary}},
	}
	c, err := NewStatic(items, drawConfig())
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}

	cases := []struct {
		r    float64
		want string
	}{
		{0, "A"},
		{0.4, "B"},
		{0.99, "C"},
	}
	for _, tc := range cases {
		got, err := c.Lookup(model.Common, engine.NewScriptedRNG(tc.r))
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if got.Title != tc.want {
			t.Errorf("Lookup(r=%v) = %s, want %s", tc.r, got.Title, tc.want)
		}
	}

	if _, err := c.Lookup(model.Rare, engine.NewScriptedRNG(0)); err == nil {
		t.Fatal("Lookup on empty tier succeeded")
	}
}
