package gacha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gacha_backend/internal/model"
)

// Stats - агрегированная статистика пользователя.
// Берется из кэша, если он собран по текущему состоянию гаранта, иначе собирается из истории. Ничего не меняет.
func (s *serv) Stats(ctx context.Context, userID string) (model.Stats, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Stats{}, fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	if stats, ok := s.cached(ctx, userID); ok {
		return stats, nil
	}

	v, err, _ := s.sf.Do(userID, func() (any, error) {
		// Ждем крутку пользователя, если она идет, иначе в кэш может попасть статистика без нее
		unlock := s.locks.Lock(userID)
		defer unlock()

		if stats, ok := s.cached(ctx, userID); ok {
			return stats, nil
		}
		return s.fold(ctx, userID)
	})
	if err != nil {
		return model.Stats{}, err
	}
	return v.(model.Stats).Clone(), nil
}

// loadStats - то же для крутки, которая уже держит блокировку пользователя
func (s *serv) loadStats(ctx context.Context, userID string) (model.Stats, error) {
	if stats, ok := s.cached(ctx, userID); ok {
		return stats, nil
	}
	return s.fold(ctx, userID)
}

// cached - запись кэша, если ее отметка совпадает с UpdatedAt гаранта в хранилище.
// Устаревшая запись сбрасывается.
func (s *serv) cached(ctx context.Context, userID string) (model.Stats, bool) {
	stats, stamp, ok := s.statsRepo.Get(userID)
	if !ok {
		return model.Stats{}, false
	}
	current, err := s.pityStamp(ctx, userID)
	if err != nil || !current.Equal(stamp) {
		s.statsRepo.Invalidate(userID)
		return model.Stats{}, false
	}
	return stats, true
}

// pityStamp - UpdatedAt состояния гаранта, нулевое время для пользователя без круток
func (s *serv) pityStamp(ctx context.Context, userID string) (time.Time, error) {
	state, err := s.pityRepo.Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return state.UpdatedAt, nil
}

func (s *serv) fold(ctx context.Context, userID string) (model.Stats, error) {
	// Гарант читаем до истории: партия между чтениями оставит отметку старой, запись пересоберется
	pity, err := s.pityRepo.Get(ctx, userID)
	var state model.PityState
	switch {
	case errors.Is(err, model.ErrNotFound):
		state = model.PityState{UserID: userID, Threshold: s.draw.PityThreshold}
	case err != nil:
		return model.Stats{}, fmt.Errorf("load pity state: %w", err)
	default:
		state = *pity
	}

	entries, err := s.historyRepo.ListByUser(ctx, userID, 0)
	if err != nil {
		return model.Stats{}, fmt.Errorf("list history: %w", err)
	}

	stats := model.NewStats()
	// история отдается от новых к старым
	for i := len(entries) - 1; i >= 0; i-- {
		stats.AddBatch(entries[i])
	}
	stats.SetPity(state)

	s.statsRepo.Put(userID, stats, state.UpdatedAt)
	return stats, nil
}
