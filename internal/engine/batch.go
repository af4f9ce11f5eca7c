package engine

import "gacha_backend/internal/model"

// Roll - выпавшая редкость слота партии до подбора конкретного предмета
type Roll struct {
	Index  int
	Rarity model.Rarity
	Reason model.GuaranteeReason
}

// Coordinator проводит партию круток через PityTracker и следит за гарантом партии
type Coordinator struct {
	Tracker PityTracker
	Policy  model.BatchPolicy
}

// NewCoordinator создает координатор по конфигурации розыгрыша
func NewCoordinator(cfg model.DrawConfig) Coordinator {
	return Coordinator{Tracker: NewPityTracker(cfg), Policy: cfg.Batch}
}

// FloorApplies - распространяется ли гарант партии на партию такого размера.
// Одиночные крутки под него не попадают.
func (c Coordinator) FloorApplies(size int) bool {
	return c.Policy.Size > 0 && size >= c.Policy.Size
}

// DrawBatch выполняет size круток подряд.
// Если гарант партии не выполнен естественным образом, заменяется только последний слот:
// его редкость берется из Policy.Override, причина - batch-bonus.
// Отброшенная естественная крутка свой инкремент счетчика сохраняет,
// а высшая редкость из замены сбрасывает счетчик, как и любая другая.
func (c Coordinator) DrawBatch(state *model.PityState, size int, rng RandomSource) []Roll {
	rolls := make([]Roll, 0, size)
	for i := 0; i < size; i++ {
		rarity, reason := c.Tracker.Draw(state, rng)
		rolls = append(rolls, Roll{Index: i, Rarity: rarity, Reason: reason})
	}

	if len(rolls) == 0 || !c.FloorApplies(size) || c.floorMet(rolls) {
		return rolls
	}

	last := len(rolls) - 1
	bonus := Select(c.Policy.Override, rng)
	if bonus.IsTop() {
		state.Counter = 0
	}
	rolls[last] = Roll{Index: last, Rarity: bonus, Reason: model.ReasonBatchBonus}

	return rolls
}

func (c Coordinator) floorMet(rolls []Roll) bool {
	for _, roll := range rolls {
		if roll.Rarity.AtLeast(c.Policy.MinimumRarity) {
			return true
		}
	}
	return false
}
