package sqlite_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
)

const (
	ownedTable    = "owned_items"
	ownedUser     = "user_id"
	ownedKey      = "identity_key"
	ownedTitle    = "title"
	ownedCategory = "category"
	ownedRarity   = "rarity"
	ownedCount    = "owned_count"
	ownedFirstAt  = "first_obtained_at_ns"
	ownedLastAt   = "last_obtained_at_ns"
	ownedLastVia  = "last_obtained_via"
)

type ownedRepo struct {
	base
}

func NewOwnedItemRepository(db *sql.DB) repository.OwnedItemRepository {
	return &ownedRepo{base: newBase(db)}
}

func (r *ownedRepo) Acquire(ctx context.Context, id string, identity model.Identity, batchID string, at time.Time) (int, error) {
	ns := toNanos(at)
	query := sq.Insert(ownedTable).
		Columns(ownedUser, ownedKey, ownedTitle, ownedCategory, ownedRarity, ownedCount, ownedFirstAt, ownedLastAt, ownedLastVia).
		Values(id, identity.Key(), identity.Title, identity.Category, identity.Rarity.String(), 1, ns, ns, batchID).
		Suffix("ON CONFLICT (" + ownedUser + ", " + ownedKey + ") DO UPDATE SET " +
			ownedCount + " = " + ownedTable + "." + ownedCount + " + 1, " +
			ownedLastAt + " = excluded." + ownedLastAt + ", " +
			ownedLastVia + " = excluded." + ownedLastVia + " " +
			"RETURNING " + ownedCount).
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err = r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("acquire %s: %w", identity.Key(), err)
	}
	return count, nil
}

func (r *ownedRepo) ListByUser(ctx context.Context, id string) ([]model.OwnedItem, error) {
	query := sq.Select(ownedTitle, ownedCategory, ownedRarity, ownedCount, ownedFirstAt, ownedLastAt, ownedLastVia).
		From(ownedTable).
		Where(sq.Eq{ownedUser: id}).
		OrderBy(ownedFirstAt, ownedKey).
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.OwnedItem, 0)
	for rows.Next() {
		var (
			item          = model.OwnedItem{UserID: id}
			rarityStr     string
			first, lastNs int64
		)
		err = rows.Scan(&item.Identity.Title, &item.Identity.Category, &rarityStr, &item.Count, &first, &lastNs, &item.LastObtainedVia)
		if err != nil {
			return nil, err
		}
		if item.Identity.Rarity, err = model.ParseRarity(rarityStr); err != nil {
			return nil, err
		}
		item.FirstObtainedAt = fromNanos(first)
		item.LastObtainedAt = fromNanos(lastNs)
		items = append(items, item)
	}
	return items, rows.Err()
}
