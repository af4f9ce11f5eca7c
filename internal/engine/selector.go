package engine

import "gacha_backend/internal/model"

// Select выбирает редкость по кумулятивному распределению.
// Редкости обходятся в каноническом порядке, возвращается первая, чья накопленная масса больше r.
func Select(dist model.Distribution, rng RandomSource) model.Rarity {
	if rng == nil {
		rng = DefaultRNG()
	}
	r := rng.Float64()

	var cumulative float64
	for _, tier := range model.Rarities() {
		p := dist[tier]
		if p <= 0 {
			continue
		}
		cumulative += p
		if r < cumulative {
			return tier
		}
	}

	// Сумма чуть меньше 1 из-за округления: отдаем низшую доступную редкость
	return lowest(dist)
}

func lowest(dist model.Distribution) model.Rarity {
	for _, tier := range model.Rarities() {
		if dist[tier] > 0 {
			return tier
		}
	}
	return model.Common
}
