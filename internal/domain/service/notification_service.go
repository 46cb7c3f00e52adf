package service

import (
	"context"
	"errors"
	"time"

	"notification-feed/internal/domain/entity"
)

var (
	// ErrInvalidInput is returned for requests rejected before any side effect
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalSource is returned when the aggregator fails, times out or
	// answers with something unusable
	ErrExternalSource = errors.New("external notification source failed")
)

// FeedService defines the interface for the merged notification feed
type FeedService interface {
	// Feed returns one page of the merged feed and marks its local items read
	Feed(ctx context.Context, req *entity.FeedRequest) (*entity.FeedPage, error)

	// MarkRead marks exactly the given local records read for the recipient
	MarkRead(ctx context.Context, recipientID string, ids []string) (int, error)
}

// UnreadCountService defines the interface for the approximate unread badge count
type UnreadCountService interface {
	// Count returns the number of unread local records
	Count(ctx context.Context, recipientID string) (int, error)

	// Invalidate drops the cached count for the recipient
	Invalidate(ctx context.Context, recipientID string) error
}

// Cache is a generic time-bound key/value store
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Deduplicator collapses concurrent calls sharing a key into one execution
type Deduplicator interface {
	Run(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error)
}

// ExternalNotificationClient fetches notifications from the aggregator API
type ExternalNotificationClient interface {
	FetchNotifications(ctx context.Context, recipientID string, types []string, limit int, continuation string) (*entity.ExternalPage, error)
}

// EntitlementChecker decides whether a recipient may see aggregator notifications
type EntitlementChecker interface {
	HasFeatureAccess(ctx context.Context, recipientID string) (bool, error)
}

// Blocklist answers moderation block-list membership without touching storage
type Blocklist interface {
	IsBlocked(recipientID string) bool
}

// ReadStatePublisher announces read-state changes to other consumers
type ReadStatePublisher interface {
	PublishRead(ctx context.Context, recipientID string, ids []string) error
}
