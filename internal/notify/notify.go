// Package notify - оповещения о редких выпадениях (epic и legendary).
// Отправка не влияет на запись партии: ошибки только логируются вызывающей стороной.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"gacha_backend/internal/model"

	"github.com/rs/zerolog"
)

// RoutingKey - ключ маршрутизации и тип события
const RoutingKey = "gacha.highlight"

// Event - тело сообщения
type Event struct {
	Type       string           `json:"type"`
	UserID     string           `json:"user_id"`
	BatchID    string           `json:"batch_id"`
	Highlights model.Highlights `json:"highlights"`
	SentAt     time.Time        `json:"sent_at"`
}

func newEvent(userID, batchID string, h model.Highlights) Event {
	return Event{Type: RoutingKey, UserID: userID, BatchID: batchID, Highlights: h, SentAt: time.Now().UTC()}
}

func encode(userID, batchID string, h model.Highlights) ([]byte, error) {
	return json.Marshal(newEvent(userID, batchID, h))
}

// LogNotifier пишет события в лог. Используется по умолчанию.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID, batchID string, h model.Highlights) error {
	n.log.Info().
		Str("user_id", userID).
		Str("batch_id", batchID).
		Int("epic", h.Epic).
		Int("legendary", h.Legendary).
		Msg("rare pull")
	return nil
}

func (n *LogNotifier) Close() error { return nil }
