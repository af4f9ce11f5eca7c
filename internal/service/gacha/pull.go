package gacha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gacha_backend/internal/model"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// SinglePull - размер одиночной крутки
	SinglePull = 1
	// MaxIdempotencyKeyLen - ограничение длины ключа идемпотентности
	MaxIdempotencyKeyLen = 128
)

// batchNamespace - пространство имен UUIDv5 для ID партий
var batchNamespace = uuid.MustParse("8f3c1e7a-5b2d-4c69-9a41-2e6d0b7f4c13")

// BatchID - детерминированный ID партии: повтор запроса с тем же ключом получает тот же ID
func BatchID(userID, idempotencyKey string) string {
	return uuid.NewSHA1(batchNamespace, []byte(userID+"\x00"+idempotencyKey)).String()
}

type committed struct {
	entry *model.BatchEntry
	pity  model.PityState
	// prev - UpdatedAt гаранта до партии, по нему сверяется кэш статистики
	prev time.Time
}

// Pull выполняет одиночную крутку или партию.
// Результаты, владение, история и гарант записываются одной транзакцией.
// Повтор с тем же ключом возвращает уже записанную партию без нового розыгрыша.
func (s *serv) Pull(ctx context.Context, req model.PullRequest) (*model.PullResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	batchID := BatchID(req.UserID, req.IdempotencyKey)
	ctx, span := s.tracer.Start(ctx, "gacha.Pull", trace.WithAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("batch_id", batchID),
		attribute.Int("batch_size", req.BatchSize),
	))
	defer span.End()

	// Одновременно у пользователя выполняется только одна крутка
	unlock, ok := s.locks.TryLock(req.UserID)
	if !ok {
		span.SetStatus(codes.Error, "concurrent pull")
		return nil, fmt.Errorf("%w: user %s", model.ErrConcurrencyConflict, req.UserID)
	}
	defer unlock()

	log := s.log.With().Str("user_id", req.UserID).Str("batch_id", batchID).Logger()

	// Партия уже записана - отдаем ее
	entry, err := s.historyRepo.Get(ctx, batchID)
	if err == nil {
		span.SetAttributes(attribute.Bool("replayed", true))
		return s.replay(ctx, entry)
	}
	if !errors.Is(err, model.ErrNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: lookup batch: %v", model.ErrPersistence, err)
	}

	res, err := s.commitWithRetry(ctx, req, batchID, log)
	if errors.Is(err, model.ErrBatchExists) {
		// партию записал другой экземпляр сервиса между проверкой и вставкой
		stored, gerr := s.historyRepo.Get(ctx, batchID)
		if gerr != nil {
			return nil, fmt.Errorf("%w: load existing batch: %v", model.ErrPersistence, gerr)
		}
		span.SetAttributes(attribute.Bool("replayed", true))
		return s.replay(ctx, stored)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist batch")
		log.Error().Err(err).Msg("pull not persisted")
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	s.statsRepo.Apply(req.UserID, *res.entry, res.pity, res.prev)
	s.notifyAsync(req.UserID, batchID, res.entry.Results)

	stats, err := s.loadStats(ctx, req.UserID)
	if err != nil {
		// партия уже записана, повтор с тем же ключом вернет ее вместе со статистикой
		return nil, fmt.Errorf("%w: load stats: %v", model.ErrPersistence, err)
	}

	log.Debug().Int("size", len(res.entry.Results)).Int("pity", res.pity.Counter).Msg("pull committed")
	return &model.PullResponse{
		BatchID: batchID,
		Results: res.entry.Results,
		Stats:   stats,
	}, nil
}

func (s *serv) validate(req model.PullRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	if req.BatchSize != SinglePull && req.BatchSize != s.draw.Batch.Size {
		return fmt.Errorf("%w: batch size must be %d or %d, got %d", model.ErrValidation, SinglePull, s.draw.Batch.Size, req.BatchSize)
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return fmt.Errorf("%w: idempotency key is required", model.ErrValidation)
	}
	if len(req.IdempotencyKey) > MaxIdempotencyKeyLen {
		return fmt.Errorf("%w: idempotency key longer than %d", model.ErrValidation, MaxIdempotencyKeyLen)
	}
	return nil
}

// commitWithRetry повторяет транзакцию с экспоненциальной задержкой.
// Конфликт ID партии и отмена контекста не повторяются.
func (s *serv) commitWithRetry(ctx context.Context, req model.PullRequest, batchID string, log zerolog.Logger) (*committed, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.backoff
	bo.MaxInterval = 8 * s.backoff

	attempt := 0
	return backoff.Retry(ctx, func() (*committed, error) {
		attempt++
		res, err := s.commit(ctx, req, batchID)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, model.ErrBatchExists) || errors.Is(err, model.ErrValidation) || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("pull transaction failed")
		return nil, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(s.maxAttempts))
}

func (s *serv) commit(ctx context.Context, req model.PullRequest, batchID string) (*committed, error) {
	rng := s.rng()
	var res committed

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		state, err := s.pityRepo.GetForUpdate(txCtx, req.UserID, s.draw.PityThreshold)
		if err != nil {
			return fmt.Errorf("load pity state: %w", err)
		}

		prev := state.UpdatedAt
		rolls := s.coord.DrawBatch(state, req.BatchSize, rng)

		now := s.now().UTC()
		outcomes := make([]model.PullOutcome, 0, len(rolls))
		for _, roll := range rolls {
			identity, err := s.catalog.Lookup(roll.Rarity, rng)
			if err != nil {
				return fmt.Errorf("catalog lookup for %s: %w", roll.Rarity, err)
			}
			count, err := s.ownedRepo.Acquire(txCtx, req.UserID, identity, batchID, now)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, model.PullOutcome{
				DrawResult: model.DrawResult{
					Identity: identity,
					Rarity:   roll.Rarity,
					PullID:   batchID,
					Index:    roll.Index,
					Reason:   roll.Reason,
					DrawnAt:  now,
				},
				IsDuplicate: count > 1,
				NewCount:    count,
			})
		}

		entry := &model.BatchEntry{
			BatchID:        batchID,
			UserID:         req.UserID,
			IdempotencyKey: req.IdempotencyKey,
			RequestedSize:  req.BatchSize,
			Results:        outcomes,
			CreatedAt:      now,
		}
		if err := s.historyRepo.Append(txCtx, entry); err != nil {
			return err
		}

		state.UpdatedAt = nextStamp(prev, now)
		if err := s.pityRepo.Save(txCtx, state); err != nil {
			return fmt.Errorf("save pity state: %w", err)
		}

		res = committed{entry: entry, pity: *state, prev: prev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// nextStamp - новое UpdatedAt гаранта. Точность микросекунды (TIMESTAMPTZ), строго больше prev.
func nextStamp(prev, now time.Time) time.Time {
	stamp := now.UTC().Truncate(time.Microsecond)
	if !stamp.After(prev) {
		stamp = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return stamp
}

// replay - ответ по уже записанной партии
func (s *serv) replay(ctx context.Context, entry *model.BatchEntry) (*model.PullResponse, error) {
	stats, err := s.loadStats(ctx, entry.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: load stats: %v", model.ErrPersistence, err)
	}
	return &model.PullResponse{
		BatchID:  entry.BatchID,
		Results:  entry.Results,
		Replayed: true,
		Stats:    stats,
	}, nil
}

// notifyAsync отправляет оповещение в фоне со своим таймаутом
func (s *serv) notifyAsync(userID, batchID string, results []model.PullOutcome) {
	h := model.HighlightsOf(results)
	if h.Empty() || s.notifier == nil {
		return
	}

	// после Shutdown новые отправки не запускаются
	s.notifyMu.Lock()
	if s.closed {
		s.notifyMu.Unlock()
		s.log.Warn().Str("user_id", userID).Str("batch_id", batchID).Msg("service is shutting down, highlight notification dropped")
		return
	}
	s.inFlight.Add(1)
	s.notifyMu.Unlock()

	go func() {
		defer s.inFlight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, userID, batchID, h); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Str("batch_id", batchID).Msg("highlight notification failed")
		}
	}()
}
