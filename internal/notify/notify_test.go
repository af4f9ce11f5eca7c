package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gacha_backend/internal/model"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

type capturePublisher struct {
	exchange, key string
	msg           amqp091.Publishing
}

func (c *capturePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

type captureProducer struct {
	records []*kgo.Record
	err     error
}

func (c *captureProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	c.records = append(c.records, rs...)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: c.err})
	}
	return out
}

func (c *captureProducer) Close() {}

func TestRabbitMQNotifier_PublishesJSON(t *testing.T) {
	pub := &capturePublisher{}
	n := &RabbitMQNotifier{ch: pub, exchange: "gacha.events"}

	if err := n.Notify(context.Background(), "u1", "batch-1", model.Highlights{Epic: 2, Legendary: 1}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.exchange != "gacha.events" || pub.key != RoutingKey {
		t.Fatalf("published to %s/%s", pub.exchange, pub.key)
	}
	var ev Event
	if err := json.Unmarshal(pub.msg.Body, &ev); err != nil {
		t.Fatalf("body: %v", err)
	}
	if ev.UserID != "u1" || ev.BatchID != "batch-1" || ev.Highlights.Epic != 2 || ev.Highlights.Legendary != 1 {
		t.Fatalf("event = %+v", ev)
	}
	if pub.msg.MessageId != "batch-1" {
		t.Fatalf("message id = %q, want batch id", pub.msg.MessageId)
	}

	// две партии одного пользователя - разные сообщения
	if err := n.Notify(context.Background(), "u1", "batch-2", model.Highlights{Epic: 1}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.msg.MessageId != "batch-2" {
		t.Fatalf("message id = %q, want batch-2", pub.msg.MessageId)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaNotifier_KeysByUser(t *testing.T) {
	prod := &captureProducer{}
	n := &KafkaNotifier{client: prod, topic: "pulls"}

	if err := n.Notify(context.Background(), "u7", "batch-7", model.Highlights{Legendary: 1}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(prod.records) != 1 {
		t.Fatalf("records = %d, want 1", len(prod.records))
	}
	rec := prod.records[0]
	if rec.Topic != "pulls" || string(rec.Key) != "u7" {
		t.Fatalf("record topic/key = %s/%s", rec.Topic, rec.Key)
	}
	batchHeader := ""
	for _, hdr := range rec.Headers {
		if hdr.Key == "batch_id" {
			batchHeader = string(hdr.Value)
		}
	}
	if batchHeader != "batch-7" {
		t.Fatalf("batch_id header = %q, want batch-7", batchHeader)
	}

	prod.err = errors.New("broker down")
	if err := n.Notify(context.Background(), "u7", "batch-8", model.Highlights{Epic: 1}); err == nil {
		t.Fatal("Notify swallowed produce error")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	if err := n.Notify(context.Background(), "u1", "batch-1", model.Highlights{Legendary: 1}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"legendary":1`)) || !bytes.Contains(buf.Bytes(), []byte(`"batch_id":"batch-1"`)) {
		t.Fatalf("log = %s", buf.String())
	}
}
