package engine

import (
	"math"
	"sort"

	"gacha_backend/internal/model"
)

// SimulationReport - итог прогона симуляции
type SimulationReport struct {
	Pulls          int
	CountsByRarity map[model.Rarity]int
	Rates          map[model.Rarity]float64
	PityHits       int
	BatchBonuses   int
	// Сколько круток понадобилось до каждой легендарки
	ToTopTier Percentiles
}

// Percentiles - описательная статистика по целочисленной выборке
type Percentiles struct {
	Mean float64
	P50  float64
	P90  float64
	P99  float64
	Max  int
}

// Simulate прогоняет batches партий размера batchSize для одного виртуального пользователя
func Simulate(cfg model.DrawConfig, batches, batchSize int, rng RandomSource) SimulationReport {
	coord := NewCoordinator(cfg)
	state := &model.PityState{Threshold: cfg.PityThreshold}

	rep := SimulationReport{
		CountsByRarity: make(map[model.Rarity]int, len(model.Rarities())),
		Rates:          make(map[model.Rarity]float64, len(model.Rarities())),
	}
	var gaps []int
	sinceTop := 0

	for b := 0; b < batches; b++ {
		for _, roll := range coord.DrawBatch(state, batchSize, rng) {
			rep.Pulls++
			rep.CountsByRarity[roll.Rarity]++
			sinceTop++
			switch roll.Reason {
			case model.ReasonPity:
				rep.PityHits++
			case model.ReasonBatchBonus:
				rep.BatchBonuses++
			case model.ReasonNone:
			}
			if roll.Rarity.IsTop() {
				gaps = append(gaps, sinceTop)
				sinceTop = 0
			}
		}
	}

	if rep.Pulls > 0 {
		for _, r := range model.Rarities() {
			rep.Rates[r] = float64(rep.CountsByRarity[r]) / float64(rep.Pulls)
		}
	}
	rep.ToTopTier = calcPercentiles(gaps)
	return rep
}

func calcPercentiles(xs []int) Percentiles {
	n := len(xs)
	if n == 0 {
		return Percentiles{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 {
			return float64(cp[0])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Percentiles{
		Mean: sum / float64(n),
		P50:  percentile(0.50),
		P90:  percentile(0.90),
		P99:  percentile(0.99),
		Max:  cp[n-1],
	}
}
