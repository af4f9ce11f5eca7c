package stats_repo

import (
	"testing"
	"time"

	"gacha_backend/internal/model"
)

func batchOf(size int, rarity model.Rarity) model.BatchEntry {
	results := make([]model.PullOutcome, size)
	for i := range results {
		results[i].Rarity = rarity
	}
	return model.BatchEntry{RequestedSize: size, Results: results}
}

func TestApply_FoldsWhenStampMatches(t *testing.T) {
	r := NewStatsRepository()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)

	s := model.NewStats()
	s.AddBatch(batchOf(1, model.Common))
	r.Put("u1", s, t0)

	r.Apply("u1", batchOf(10, model.Rare), model.PityState{Counter: 11, Threshold: 90, UpdatedAt: t1}, t0)

	got, stamp, ok := r.Get("u1")
	if !ok {
		t.Fatal("entry dropped")
	}
	if got.TotalPulls != 11 || got.CountsByRarity[model.Rare] != 10 || got.PityCounter != 11 {
		t.Fatalf("stats = %+v", got)
	}
	if !stamp.Equal(t1) {
		t.Fatalf("stamp = %v, want %v", stamp, t1)
	}
}

func TestApply_DropsEntryBuiltOnOtherState(t *testing.T) {
	r := NewStatsRepository()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r.Put("u1", model.NewStats(), t0)
	// перед этой партией состояние гаранта уже менял кто-то другой
	r.Apply("u1", batchOf(1, model.Common), model.PityState{Counter: 12, UpdatedAt: t0.Add(2 * time.Second)}, t0.Add(time.Second))

	if _, _, ok := r.Get("u1"); ok {
		t.Fatal("stale entry must be invalidated")
	}
}

func TestApply_IgnoresUncachedUser(t *testing.T) {
	r := NewStatsRepository()
	r.Apply("u1", batchOf(1, model.Common), model.PityState{Counter: 1}, time.Time{})
	if _, _, ok := r.Get("u1"); ok {
		t.Fatal("Apply must not create entries")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := NewStatsRepository()
	r.Put("u1", model.NewStats(), time.Time{})

	got, _, _ := r.Get("u1")
	got.CountsByRarity[model.Common] = 99

	again, _, _ := r.Get("u1")
	if again.CountsByRarity[model.Common] != 0 {
		t.Fatal("cache map leaked to caller")
	}
}
