package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/helixir/paper-agent/internal/observability"
)

// digestMessage is the JSON envelope published to the digest topic.
type digestMessage struct {
	SentAt time.Time `json:"sent_at"`
	// CycleID ties the digest back to the pipeline cycle that produced it.
	CycleID string `json:"cycle_id,omitempty"`
	Text    string `json:"text"`
}

// KafkaNotifier publishes digest messages to a Kafka topic for downstream
// consumers (e.g. a chat bridge or archive service).
type KafkaNotifier struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaNotifier creates a Kafka digest publisher.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &KafkaNotifier{writer: writer, topic: topic}
}

// Name implements Notifier.
func (n *KafkaNotifier) Name() string { return "kafka" }

// SendMessage implements Notifier.
func (n *KafkaNotifier) SendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(digestMessage{
		SentAt:  time.Now().UTC(),
		CycleID: observability.CycleIDFromContext(ctx),
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("marshal digest message: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(time.Now().UTC().Format(time.RFC3339)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish digest to %s: %w", n.topic, err)
	}
	return nil
}

// SendMessages implements Notifier with a single batched produce call; the
// writer either acks the whole batch or the call fails.
func (n *KafkaNotifier) SendMessages(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	now := time.Now().UTC()
	cycleID := observability.CycleIDFromContext(ctx)
	msgs := make([]kafka.Message, 0, len(texts))
	for i, text := range texts {
		payload, err := json.Marshal(digestMessage{
			SentAt:  now,
			CycleID: cycleID,
			Text:    text,
		})
		if err != nil {
			return fmt.Errorf("marshal digest message: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(fmt.Sprintf("%s-%d", now.Format(time.RFC3339), i)),
			Value: payload,
		})
	}

	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish digest batch to %s: %w", n.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

var _ Notifier = (*KafkaNotifier)(nil)
