package repository

import (
	"context"
	"time"

	"gacha_backend/internal/model"
)

type PityRepository interface {
	// GetForUpdate возвращает состояние гаранта, создавая его с нулевым счетчиком, если записи нет.
	// Внутри транзакции строка блокируется до ее завершения.
	GetForUpdate(ctx context.Context, userID string, threshold int) (*model.PityState, error)
	Get(ctx context.Context, userID string) (*model.PityState, error)
	Save(ctx context.Context, state *model.PityState) error
}

type OwnedItemRepository interface {
	// Acquire атомарно создает запись владения или увеличивает счетчик на 1. Возвращает новое значение счетчика.
	Acquire(ctx context.Context, userID string, identity model.Identity, batchID string, at time.Time) (int, error)
	ListByUser(ctx context.Context, userID string) ([]model.OwnedItem, error)
}

type HistoryRepository interface {
	// Append возвращает model.ErrBatchExists, если партия с таким ID уже записана
	Append(ctx context.Context, entry *model.BatchEntry) error
	Get(ctx context.Context, batchID string) (*model.BatchEntry, error)
	// ListByUser - партии пользователя от новых к старым, limit <= 0 - без ограничения
	ListByUser(ctx context.Context, userID string, limit int) ([]model.BatchEntry, error)
}

// StatsRepository - кэш статистики. Запись помечена UpdatedAt состояния гаранта, по которому собрана:
// отметка в хранилище отличается - значит партии записал другой экземпляр.
type StatsRepository interface {
	Get(userID string) (stats model.Stats, stamp time.Time, ok bool)
	Put(userID string, stats model.Stats, stamp time.Time)
	// Apply досчитывает запись новой партией, если она собрана по состоянию prev. Иначе запись сбрасывается.
	Apply(userID string, entry model.BatchEntry, pity model.PityState, prev time.Time)
	Invalidate(userID string)
}
