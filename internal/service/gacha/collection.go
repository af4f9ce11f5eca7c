package gacha

import (
	"context"
	"fmt"
	"strings"

	"gacha_backend/internal/model"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Collection - предметы пользователя с количеством
func (s *serv) Collection(ctx context.Context, userID string) ([]model.OwnedItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	items, err := s.ownedRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned items: %w", err)
	}
	return items, nil
}

// History - последние партии пользователя, limit <= 0 - значение по умолчанию
func (s *serv) History(ctx context.Context, userID string, limit int) ([]model.BatchEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", model.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be <= %d", model.ErrValidation, MaxHistoryLimit)
	}
	entries, err := s.historyRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
