package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON document published for each notification.
type Event struct {
	Kind      string          `json:"kind"`
	RunID     string          `json:"run_id"`
	Client    uint16          `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
	SentAt    time.Time       `json:"sent_at"`
}

// KafkaNotifier publishes notifications as JSON events keyed by client id.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaNotifier builds a notifier writing to topic on the given brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

// Send publishes message.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	acct := message.Account
	event := Event{
		Kind:      message.Kind,
		RunID:     message.RunID,
		Client:    uint16(acct.Client),
		Available: acct.Available.Decimal(),
		Held:      acct.Held.Decimal(),
		Total:     acct.Total().Decimal(),
		Locked:    acct.Locked,
		SentAt:    n.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(acct.Client), 10)),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", message.Kind, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// Multi fans a message out to every notifier, stopping at the first error.
type Multi []Notifier

// Send delivers message to each notifier in order.
func (m Multi) Send(ctx context.Context, message Message) error {
	for _, n := range m {
		if err := n.Send(ctx, message); err != nil {
			return err
		}
	}
	return nil
}
