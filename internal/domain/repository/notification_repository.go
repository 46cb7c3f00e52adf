package repository

import (
	"context"
	"time"

	"notification-feed/internal/domain/entity"
)

// NotificationRepository defines the interface for notification record persistence.
// Records are written by the ingestion pipeline; this service only reads them
// and flips is_read.
type NotificationRepository interface {
	// ListBefore returns the recipient's records that sort after the boundary
	// in (created_at DESC, id DESC) order, newest first. A nil before means no
	// upper bound. An empty beforeID excludes every record at exactly before.
	ListBefore(ctx context.Context, recipientID string, before *time.Time, beforeID string, limit int) ([]*entity.NotificationRecord, error)

	// MarkRead flips is_read for exactly the given ids that are still unread
	// and returns the ids that changed
	MarkRead(ctx context.Context, recipientID string, ids []string) ([]string, error)

	// CountUnread counts the recipient's unread records
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

// EntitlementRepository looks up per-recipient feature grants
type EntitlementRepository interface {
	// HasFeature reports whether the recipient holds an active grant for feature
	HasFeature(ctx context.Context, recipientID, feature string) (bool, error)
}

// BlocklistRepository reads the moderation block-list
type BlocklistRepository interface {
	// ListBlocked returns every blocked recipient id
	ListBlocked(ctx context.Context) ([]string, error)
}
