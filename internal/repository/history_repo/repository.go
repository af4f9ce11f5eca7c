package history_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table          = "pull_batches"
	batchId        = "batch_id"
	userId         = "user_id"
	idempotencyKey = "idempotency_key"
	requestedSize  = "requested_size"
	results        = "results"
	createdAt      = "created_at"

	uniqueViolation = "23505"
)

var columns = []string{batchId, userId, idempotencyKey, requestedSize, results, createdAt}

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewHistoryRepository(dbc *pgxpool.Pool) repository.HistoryRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Append - запись партии в историю. Повторная запись с тем же ID - model.ErrBatchExists.
func (r *repo) Append(ctx context.Context, entry *model.BatchEntry) error {
	raw, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := sq.Insert(table).
		Columns(columns...).
		Values(entry.BatchID, entry.UserID, entry.IdempotencyKey, entry.RequestedSize, raw, entry.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrBatchExists
		}
		return err
	}
	return nil
}

func (r *repo) Get(ctx context.Context, id string) (*model.BatchEntry, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{batchId: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	entry, err := scanEntry(r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *repo) ListByUser(ctx context.Context, id string, limit int) ([]model.BatchEntry, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{userId: id}).
		OrderBy(createdAt+" DESC", batchId).
		PlaceholderFormat(sq.Dollar)
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.BatchEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*model.BatchEntry, error) {
	var (
		entry model.BatchEntry
		raw   []byte
	)
	err := row.Scan(&entry.BatchID, &entry.UserID, &entry.IdempotencyKey, &entry.RequestedSize, &raw, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(raw, &entry.Results); err != nil {
		return nil, fmt.Errorf("decode results of %s: %w", entry.BatchID, err)
	}
	return &entry, nil
}
