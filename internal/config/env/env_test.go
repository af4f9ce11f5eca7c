package env

import (
	"errors"
	"math"
	"testing"
	"time"

	"gacha_backend/internal/model"
)

func TestShippedDrawConfigIsValid(t *testing.T) {
	cfg, err := NewDrawConfigFromYAML("../../../config.yaml")
	if err != nil {
		t.Fatalf("NewDrawConfigFromYAML: %v", err)
	}
	draw := cfg.Draw()
	if d := math.Abs(draw.Probabilities.Sum() - 1); d > model.ProbabilityEpsilon {
		t.Fatalf("probabilities sum off by %v", d)
	}
	if d := math.Abs(draw.Batch.Override.Sum() - 1); d > model.ProbabilityEpsilon {
		t.Fatalf("override sum off by %v", d)
	}
	if draw.Batch.Size != 10 || draw.Batch.MinimumRarity != model.Epic {
		t.Fatalf("batch policy = %+v", draw.Batch)
	}
	for _, r := range model.Rarities() {
		if len(cfg.Catalog()[r]) == 0 {
			t.Errorf("catalog tier %s is empty", r)
		}
	}
}

func TestParseDrawConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"broken yaml", "draw: [\n"},
		{"unknown rarity", `
draw:
  probabilities: {common: 0.5, mythic: 0.5}
  pity_threshold: 10
  batch: {size: 10, minimum_rarity: epic, override: {epic: 1}}
`},
		{"sum above one", `
draw:
  probabilities: {common: 0.7, rare: 0.25, epic: 0.12, legendary: 0.03}
  pity_threshold: 10
  batch: {size: 10, minimum_rarity: epic, override: {epic: 1}}
`},
		{"zero pity threshold", `
draw:
  probabilities: {common: 1}
  pity_threshold: 0
  batch: {size: 10, minimum_rarity: epic, override: {epic: 1}}
`},
		{"empty title", `
draw:
  probabilities: {common: 1}
  pity_threshold: 10
  batch: {size: 10, minimum_rarity: epic, override: {epic: 1}}
catalog:
  common:
    - {title: " ", category: misc}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDrawConfig([]byte(tc.yaml))
			if !errors.Is(err, model.ErrConfig) {
				t.Fatalf("ParseDrawConfig = %v, want ErrConfig", err)
			}
		})
	}
}

func TestNewNotifierConfig(t *testing.T) {
	t.Setenv("NOTIFIER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_TOPIC", "pulls")

	cfg, err := NewNotifierConfig()
	if err != nil {
		t.Fatalf("NewNotifierConfig: %v", err)
	}
	if cfg.Kind() != NotifierKafka {
		t.Fatalf("Kind() = %q, want kafka", cfg.Kind())
	}
	if got := cfg.KafkaBrokers(); len(got) != 2 || got[1] != "k2:9092" {
		t.Fatalf("KafkaBrokers() = %v", got)
	}

	t.Setenv("NOTIFIER", "carrier-pigeon")
	if _, err := NewNotifierConfig(); err == nil {
		t.Fatal("unknown notifier accepted")
	}
}

func TestNewPersistConfig_Defaults(t *testing.T) {
	cfg, err := NewPersistConfig()
	if err != nil {
		t.Fatalf("NewPersistConfig: %v", err)
	}
	if cfg.MaxAttempts() != 3 || cfg.Backoff() != 50*time.Millisecond {
		t.Fatalf("defaults = %d, %v, want 3, 50ms", cfg.MaxAttempts(), cfg.Backoff())
	}

	t.Setenv("PERSIST_MAX_ATTEMPTS", "0")
	if _, err := NewPersistConfig(); err == nil {
		t.Fatal("zero attempts accepted")
	}
}

func TestNewStorageConfig(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	cfg, err := NewStorageConfig()
	if err != nil {
		t.Fatalf("NewStorageConfig: %v", err)
	}
	if cfg.Driver() != DriverSQLite || cfg.SQLitePath() != "/tmp/x.db" {
		t.Fatalf("storage = %q %q", cfg.Driver(), cfg.SQLitePath())
	}

	t.Setenv("STORAGE_DRIVER", "mongo")
	if _, err := NewStorageConfig(); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestNewDrawConfig_FromEnvPath(t *testing.T) {
	t.Setenv("DRAW_CONFIG_PATH", "../../../config.yaml")
	cfg, err := NewDrawConfig()
	if err != nil {
		t.Fatalf("NewDrawConfig: %v", err)
	}
	if cfg.Draw().PityThreshold != 90 {
		t.Fatalf("pity threshold = %d, want 90", cfg.Draw().PityThreshold)
	}

	t.Setenv("DRAW_CONFIG_PATH", "does-not-exist.yaml")
	if _, err := NewDrawConfig(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
