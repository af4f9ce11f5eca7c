package owned_repo

import (
	"context"
	"fmt"
	"time"

	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table           = "owned_items"
	userId          = "user_id"
	identityKey     = "identity_key"
	title           = "title"
	category        = "category"
	rarity          = "rarity"
	ownedCount      = "owned_count"
	firstObtainedAt = "first_obtained_at"
	lastObtainedAt  = "last_obtained_at"
	lastObtainedVia = "last_obtained_via"
)

// acquireSuffix - увеличение счетчика одним выражением, без чтения перед записью
const acquireSuffix = "ON CONFLICT (" + userId + ", " + identityKey + ") DO UPDATE SET " +
	ownedCount + " = " + table + "." + ownedCount + " + 1, " +
	lastObtainedAt + " = EXCLUDED." + lastObtainedAt + ", " +
	lastObtainedVia + " = EXCLUDED." + lastObtainedVia + " " +
	"RETURNING " + ownedCount

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewOwnedItemRepository(dbc *pgxpool.Pool) repository.OwnedItemRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Acquire - добавление предмета во владение, возвращает новое значение счетчика
func (r *repo) Acquire(ctx context.Context, id string, identity model.Identity, batchID string, at time.Time) (int, error) {
	query := sq.Insert(table).
		Columns(userId, identityKey, title, category, rarity, ownedCount, firstObtainedAt, lastObtainedAt, lastObtainedVia).
		Values(id, identity.Key(), identity.Title, identity.Category, identity.Rarity.String(), 1, at, at, batchID).
		Suffix(acquireSuffix).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err = r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("acquire %s: %w", identity.Key(), err)
	}
	return count, nil
}

// ListByUser - коллекция пользователя в порядке первого получения
func (r *repo) ListByUser(ctx context.Context, id string) ([]model.OwnedItem, error) {
	query := sq.Select(title, category, rarity, ownedCount, firstObtainedAt, lastObtainedAt, lastObtainedVia).
		From(table).
		Where(sq.Eq{userId: id}).
		OrderBy(firstObtainedAt, identityKey).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.OwnedItem, 0)
	for rows.Next() {
		item := model.OwnedItem{UserID: id}
		var rarityStr string
		err = rows.Scan(&item.Identity.Title, &item.Identity.Category, &rarityStr, &item.Count,
			&item.FirstObtainedAt, &item.LastObtainedAt, &item.LastObtainedVia)
		if err != nil {
			return nil, err
		}
		if item.Identity.Rarity, err = model.ParseRarity(rarityStr); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
