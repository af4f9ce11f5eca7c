package notify

import (
	"context"
	"fmt"

	"gacha_backend/internal/model"

	"github.com/twmb/franz-go/pkg/kgo"
)

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaNotifier пишет события в топик, ключ - ID пользователя
type KafkaNotifier struct {
	client producer
	topic  string
}

func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("gacha-backend"),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("new kafka client: %w", err)
	}
	return &KafkaNotifier{client: client, topic: topic}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, userID, batchID string, h model.Highlights) error {
	body, err := encode(userID, batchID, h)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(userID),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(RoutingKey)},
			{Key: "batch_id", Value: []byte(batchID)},
		},
	}
	return n.client.ProduceSync(ctx, record).FirstErr()
}

func (n *KafkaNotifier) Close() error {
	n.client.Close()
	return nil
}
