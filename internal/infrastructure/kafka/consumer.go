package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"notification-feed/internal/config"
	"notification-feed/internal/domain/service"

	"github.com/segmentio/kafka-go"
)

const readErrorBackoff = time.Second

// Consumer keeps the unread-count cache honest when read state or the record
// set changes outside a feed request
type Consumer struct {
	reader      *kafka.Reader
	unreadCount service.UnreadCountService
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, unreadCount service.UnreadCountService) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:      reader,
		unreadCount: unreadCount,
	}
}

// Start consumes messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	log.Println("Starting Kafka consumer...")

	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Println("Stopping Kafka consumer...")
				return nil
			}
			log.Printf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				log.Println("Stopping Kafka consumer...")
				return nil
			case <-time.After(readErrorBackoff):
			}
			continue
		}

		if err := c.processMessage(ctx, message); err != nil {
			log.Printf("Error processing message at offset %d: %v", message.Offset, err)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, message kafka.Message) error {
	event, err := decodeEvent(message.Value)
	if err != nil {
		return err
	}
	return c.handleEvent(ctx, event)
}

func (c *Consumer) handleEvent(ctx context.Context, event *NotificationEvent) error {
	switch event.EventType {
	case EventTypeNotificationCreated, EventTypeNotificationRead:
		if err := c.unreadCount.Invalidate(ctx, event.RecipientID); err != nil {
			return fmt.Errorf("failed to invalidate unread count: %w", err)
		}
		return nil
	default:
		log.Printf("Unknown event type: %s (ID: %s)", event.EventType, event.EventID)
		return nil
	}
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
