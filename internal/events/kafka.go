package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events through one shared asynchronous kafka-go writer.
// WriteMessages returns as soon as the message is buffered; the completion
// callback logs delivery failures.
type KafkaPublisher struct {
	w *kafkago.Writer
}

// NewKafkaPublisher returns a publisher for the given brokers. The topic is
// chosen per message.
func NewKafkaPublisher(brokers []string, log *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafkago.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				log.Warn("kafka publish failed", "topic", m.Topic, "key", string(m.Key), "error", err)
			}
		},
	}
	return &KafkaPublisher{w: w}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events.KafkaPublisher.Publish: marshal: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("events.KafkaPublisher.Publish: %w", err)
	}
	return nil
}

// Close flushes buffered messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
