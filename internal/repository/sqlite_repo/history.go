package sqlite_repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gacha_backend/internal/model"
	"gacha_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
)

const (
	historyTable     = "pull_batches"
	historyBatch     = "batch_id"
	historyUser      = "user_id"
	historyKey       = "idempotency_key"
	historySize      = "requested_size"
	historyResults   = "results_json"
	historyCreatedAt = "created_at_ns"
)

var historyColumns = []string{historyBatch, historyUser, historyKey, historySize, historyResults, historyCreatedAt}

type historyRepo struct {
	base
}

func NewHistoryRepository(db *sql.DB) repository.HistoryRepository {
	return &historyRepo{base: newBase(db)}
}

func (r *historyRepo) Append(ctx context.Context, entry *model.BatchEntry) error {
	raw, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := sq.Insert(historyTable).
		Columns(historyColumns...).
		Values(entry.BatchID, entry.UserID, entry.IdempotencyKey, entry.RequestedSize, string(raw), toNanos(entry.CreatedAt)).
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err = r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, sqlStr, args...); err != nil {
		if isUniqueViolation(err) {
			return model.ErrBatchExists
		}
		return err
	}
	return nil
}

func (r *historyRepo) Get(ctx context.Context, id string) (*model.BatchEntry, error) {
	query := sq.Select(historyColumns...).
		From(historyTable).
		Where(sq.Eq{historyBatch: id}).
		PlaceholderFormat(sq.Question)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	entry, err := scanEntry(r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *historyRepo) ListByUser(ctx context.Context, id string, limit int) ([]model.BatchEntry, error) {
	query := sq.Select(historyColumns...).
		From(historyTable).
		Where(sq.Eq{historyUser: id}).
		OrderBy(historyCreatedAt+" DESC", historyBatch).
		PlaceholderFormat(sq.Question)
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, sqlStr, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*model.BatchEntry, error) {
	var (
		entry model.BatchEntry
		raw   string
		ns    int64
	)
	if err := row.Scan(&entry.BatchID, &entry.UserID, &entry.IdempotencyKey, &entry.RequestedSize, &raw, &ns); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &entry.Results); err != nil {
		return nil, fmt.Errorf("decode results of %s: %w", entry.BatchID, err)
	}
	entry.CreatedAt = fromNanos(ns)
	return &entry, nil
}
