package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notification-feed/internal/config"
	"notification-feed/internal/domain/service"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes read-state events
type Producer struct {
	writer messageWriter
}

var _ service.ReadStatePublisher = (*Producer)(nil)

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}

	return &Producer{
		writer: writer,
	}
}

// PublishRead publishes a notification.read event keyed by recipient
func (p *Producer) PublishRead(ctx context.Context, recipientID string, ids []string) error {
	event := NewReadEvent(recipientID, ids)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(recipientID),
		Value: data,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish read event: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
