package stats_repo

import (
	"sync"
	"time"

	"gacha_backend/internal/model"
)

type entry struct {
	stats model.Stats
	stamp time.Time
}

// StatsRepo - кэш агрегированной статистики в памяти процесса.
// После рестарта пуст, статистика пересчитывается из истории при первом запросе.
type StatsRepo struct {
	mtx   sync.RWMutex
	stats map[string]entry
}

// NewStatsRepository Конструктор пустого кэша
func NewStatsRepository() *StatsRepo {
	return &StatsRepo{
		stats: make(map[string]entry),
	}
}

// Get возвращает копию статистики пользователя и отметку состояния гаранта
func (r *StatsRepo) Get(userID string) (model.Stats, time.Time, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	e, ok := r.stats[userID]
	if !ok {
		return model.Stats{}, time.Time{}, false
	}
	return e.stats.Clone(), e.stamp, true
}

func (r *StatsRepo) Put(userID string, stats model.Stats, stamp time.Time) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.stats[userID] = entry{stats: stats.Clone(), stamp: stamp}
}

// Apply Обновление статистики после записанной партии.
// Если пользователя нет в кэше, ничего не делаем: его статистика соберется из истории.
// Если запись собрана не по состоянию prev, между ними были чужие партии, и запись сбрасывается.
func (r *StatsRepo) Apply(userID string, batch model.BatchEntry, pity model.PityState, prev time.Time) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	e, ok := r.stats[userID]
	if !ok {
		return
	}
	if !e.stamp.Equal(prev) {
		delete(r.stats, userID)
		return
	}
	e.stats.AddBatch(batch)
	e.stats.SetPity(pity)
	e.stamp = pity.UpdatedAt
	r.stats[userID] = e
}

func (r *StatsRepo) Invalidate(userID string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	delete(r.stats, userID)
}
