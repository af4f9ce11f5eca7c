package service

import (
	"context"

	"gacha_backend/internal/engine"
	"gacha_backend/internal/model"
)

type GachaService interface {
	Pull(ctx context.Context, req model.PullRequest) (*model.PullResponse, error)
	Stats(ctx context.Context, userID string) (model.Stats, error)
	Collection(ctx context.Context, userID string) ([]model.OwnedItem, error)
	History(ctx context.Context, userID string, limit int) ([]model.BatchEntry, error)
	// Shutdown дожидается отправки оповещений, запущенных в фоне
	Shutdown(ctx context.Context) error
}

// Catalog выдает конкретный предмет для выпавшей редкости
type Catalog interface {
	Lookup(rarity model.Rarity, rng engine.RandomSource) (model.Identity, error)
}

// Notifier оповещает о редких выпадениях. Ошибка не откатывает партию.
type Notifier interface {
	Notify(ctx context.Context, userID, batchID string, h model.Highlights) error
}
