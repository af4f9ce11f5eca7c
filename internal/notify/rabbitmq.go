package notify

import (
	"context"
	"fmt"
	"sync"

	"gacha_backend/internal/model"

	"github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// RabbitMQNotifier публикует события в topic exchange
type RabbitMQNotifier struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       publisher
	closeCh  func() error
	exchange string
}

func NewRabbitMQNotifier(url, exchange string) (*RabbitMQNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQNotifier{conn: conn, ch: ch, closeCh: ch.Close, exchange: exchange}, nil
}

// Notify публикует событие. MessageId - ID партии: одна партия дает не больше одного события.
func (n *RabbitMQNotifier) Notify(ctx context.Context, userID, batchID string, h model.Highlights) error {
	body, err := encode(userID, batchID, h)
	if err != nil {
		return err
	}

	// канал amqp не потокобезопасен для публикации
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.PublishWithContext(ctx, n.exchange, RoutingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    batchID,
		Body:         body,
	})
}

func (n *RabbitMQNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closeCh != nil {
		_ = n.closeCh()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
