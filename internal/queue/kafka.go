// momo-gateway/internal/queue/kafka.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	m "github.com/example/momo-gateway/pkg/metrics"
)

const (
	EventPaymentCreated = "payment.created"
	EventPaymentChecked = "payment.checked"
)

// Event is the JSON value on the topic; the message key is the orderId.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Session    string    `json:"session,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	PayURL     string    `json:"payUrl,omitempty"`
	ResultCode int       `json:"resultCode"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

type Bus struct {
	topic  string
	writer *kafka.Writer
}

func New(brokers []string, topic string) *Bus {
	return &Bus{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes one keyed message stamped with at.
func (b *Bus) Publish(ctx context.Context, key, payload []byte, at time.Time) error {
	return b.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload, Time: at})
}

func (b *Bus) PublishEvent(ctx context.Context, ev Event) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}
	if err := b.Publish(ctx, msg.Key, msg.Value, msg.Time); err != nil {
		m.IncEvent(ev.Type, "FAILED")
		return fmt.Errorf("publish %s %s to %s: %w", ev.Type, ev.OrderID, b.topic, err)
	}
	m.IncEvent(ev.Type, "SUCCESS")
	return nil
}

func (b *Bus) Close() error { return b.writer.Close() }

// Consume reads events with a consumer group until ctx is done. Handler errors are logged and
// the message is still committed; malformed messages are skipped.
func Consume(ctx context.Context, brokers []string, topic, groupID string, handle func(context.Context, Event) error) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read %s: %w", topic, err)
		}
		ev, err := decode(msg)
		if err != nil {
			log.Printf("[queue] bad msg offset=%d: %v", msg.Offset, err)
			continue
		}
		if err := handle(ctx, ev); err != nil {
			log.Printf("[queue] handle %s %s: %v", ev.Type, ev.OrderID, err)
		}
	}
}

func encode(ev Event) (kafka.Message, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	return kafka.Message{Key: []byte(ev.OrderID), Value: b, Time: ev.At}, nil
}

func decode(msg kafka.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return Event{}, err
	}
	if ev.OrderID == "" {
		ev.OrderID = string(msg.Key)
	}
	return ev, nil
}
