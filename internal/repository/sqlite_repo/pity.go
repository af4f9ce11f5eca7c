package sqlite_repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
)

const (
	pityTable     = "pity_states"
	pityUser      = "user_id"
	pityCounter   = "counter"
	pityThreshold = "threshold"
	pityUpdatedAt = "updated_at_ns"
)

type pityRepo struct {
	base
}

func NewPityRepository(db *sql.DB) repository.PityRepository {
	return &pityRepo{base: newBase(db)}
}

// GetForUpdate - в SQLite строковых блокировок нет, писатели сериализуются транзакцией IMMEDIATE
func (r *pityRepo) GetForUpdate(ctx context.Context, id string, threshold int) (*model.PityState, error) {
	db := r.getter.DefaultTrOrDB(ctx, r.db)

	insertQuery := sq.Insert(pityTable).
		Columns(pityUser, pityCounter, pityThreshold, pityUpdatedAt).
		Values(id, 0, threshold, toNanos(time.Now())).
		Suffix("ON CONFLICT (" + pityUser + ") DO NOTHING").
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := insertQuery.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err = db.ExecContext(ctx, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("create pity state: %w", err)
	}

	state, err := r.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pity state: %w", err)
	}
	return state, nil
}

func (r *pityRepo) Get(ctx context.Context, id string) (*model.PityState, error) {
	query := sq.Select(pityUser, pityCounter, pityThreshold, pityUpdatedAt).
		From(pityTable).
		Where(sq.Eq{pityUser: id}).
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		state model.PityState
		ns    int64
	)
	err = r.getter.DefaultTrOrDB(ctx, r.db).
		QueryRowContext(ctx, sqlStr, args...).
		Scan(&state.UserID, &state.Counter, &state.Threshold, &ns)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	state.UpdatedAt = fromNanos(ns)
	return &state, nil
}

func (r *pityRepo) Save(ctx context.Context, state *model.PityState) error {
	query := sq.Insert(pityTable).
		Columns(pityUser, pityCounter, pityThreshold, pityUpdatedAt).
		Values(state.UserID, state.Counter, state.Threshold, toNanos(state.UpdatedAt)).
		Suffix("ON CONFLICT (" + pityUser + ") DO UPDATE SET " +
			pityCounter + " = excluded." + pityCounter + ", " +
			pityThreshold + " = excluded." + pityThreshold + ", " +
			pityUpdatedAt + " = excluded." + pityUpdatedAt).
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, sqlStr, args...)
	return err
}
