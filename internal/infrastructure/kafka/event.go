package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeNotificationCreated = "notification.created"
	EventTypeNotificationRead    = "notification.read"
)

// NotificationEvent is the JSON payload carried on the notification events topic
type NotificationEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	RecipientID string    `json:"recipient_id"`
	IDs         []string  `json:"ids,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewReadEvent builds a notification.read event for the given ids
func NewReadEvent(recipientID string, ids []string) *NotificationEvent {
	return &NotificationEvent{
		EventID:     uuid.New().String(),
		EventType:   EventTypeNotificationRead,
		RecipientID: recipientID,
		IDs:         ids,
		OccurredAt:  time.Now().UTC(),
	}
}

func decodeEvent(data []byte) (*NotificationEvent, error) {
	var event NotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.RecipientID == "" {
		return nil, fmt.Errorf("event %s has no recipient", event.EventID)
	}
	return &event, nil
}
