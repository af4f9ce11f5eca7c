package engine

import "gacha_backend/internal/model"

// PityTracker - жесткий гарант: после Threshold-1 подряд невысших выпадений следующая крутка дает высшую редкость
type PityTracker struct {
	Dist      model.Distribution
	Threshold int
}

// NewPityTracker создает трекер по конфигурации розыгрыша
func NewPityTracker(cfg model.DrawConfig) PityTracker {
	return PityTracker{Dist: cfg.Probabilities, Threshold: cfg.PityThreshold}
}

// Draw выполняет одну крутку и меняет счетчик в state.
// Проверка идет до инкремента, поэтому гарантирована именно Threshold-я крутка.
// Вызывающий обязан держать эксклюзивный доступ к state.
func (t PityTracker) Draw(state *model.PityState, rng RandomSource) (model.Rarity, model.GuaranteeReason) {
	state.Threshold = t.Threshold

	if t.Threshold > 0 && state.Counter+1 >= t.Threshold {
		state.Counter = 0
		return model.TopRarity, model.ReasonPity
	}

	rarity := Select(t.Dist, rng)
	state.Counter++
	if rarity.IsTop() {
		state.Counter = 0
	}
	return rarity, model.ReasonNone
}
