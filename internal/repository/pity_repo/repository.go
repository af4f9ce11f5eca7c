package pity_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table     = "pity_states"
	userId    = "user_id"
	counter   = "counter"
	threshold = "threshold"
	updatedAt = "updated_at"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewPityRepository(dbc *pgxpool.Pool) repository.PityRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// GetForUpdate - состояние гаранта с блокировкой строки до конца транзакции
// Если записи нет, создается новая с нулевым счетчиком
func (r *repo) GetForUpdate(ctx context.Context, id string, pityThreshold int) (*model.PityState, error) {
	db := r.getter.DefaultTrOrDB(ctx, r.dbc)

	// Вставка, если записи не существует
	insertQuery := sq.Insert(table).
		Columns(userId, counter, threshold, updatedAt).
		Values(id, 0, pityThreshold, time.Now().UTC()).
		Suffix("ON CONFLICT (" + userId + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := insertQuery.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(ctx, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("create pity state: %w", err)
	}

	query := sq.Select(userId, counter, threshold, updatedAt).
		From(table).
		Where(sq.Eq{userId: id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err = query.ToSql()
	if err != nil {
		return nil, err
	}

	var state model.PityState
	err = db.QueryRow(ctx, sqlStr, args...).Scan(&state.UserID, &state.Counter, &state.Threshold, &state.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("lock pity state: %w", err)
	}
	return &state, nil
}

// Get - состояние гаранта без блокировки. model.ErrNotFound, если пользователь еще не крутил.
func (r *repo) Get(ctx context.Context, id string) (*model.PityState, error) {
	query := sq.Select(userId, counter, threshold, updatedAt).
		From(table).
		Where(sq.Eq{userId: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var state model.PityState
	err = r.getter.DefaultTrOrDB(ctx, r.dbc).
		QueryRow(ctx, sqlStr, args...).
		Scan(&state.UserID, &state.Counter, &state.Threshold, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// Save - запись счетчика. Если записи нет, создается новая.
func (r *repo) Save(ctx context.Context, state *model.PityState) error {
	db := r.getter.DefaultTrOrDB(ctx, r.dbc)

	query := sq.Update(table).
		Set(counter, state.Counter).
		Set(threshold, state.Threshold).
		Set(updatedAt, state.UpdatedAt).
		Where(sq.Eq{userId: state.UserID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	res, err := db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}

	// Если rowsAffected = 0 - то записи не существует и делаем вставку
	if res.RowsAffected() == 0 {
		insertQuery := sq.Insert(table).
			Columns(userId, counter, threshold, updatedAt).
			Values(state.UserID, state.Counter, state.Threshold, state.UpdatedAt).
			PlaceholderFormat(sq.Dollar)

		sqlStr, args, err = insertQuery.ToSql()
		if err != nil {
			return err
		}
		if _, err = db.Exec(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}
