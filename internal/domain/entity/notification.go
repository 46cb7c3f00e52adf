package entity

import (
	"encoding/json"
	"time"
)

// NotificationType represents an external aggregator notification type
type NotificationType string

const (
	NotificationTypeFollows  NotificationType = "follows"
	NotificationTypeLikes    NotificationType = "likes"
	NotificationTypeRecasts  NotificationType = "recasts"
	NotificationTypeMentions NotificationType = "mentions"
	NotificationTypeReplies  NotificationType = "replies"
	NotificationTypeQuotes   NotificationType = "quotes"
)

// SupportedExternalTypes lists every type the aggregator can be asked for.
// A nil type filter on a feed request expands to this list.
func SupportedExternalTypes() []NotificationType {
	return []NotificationType{
		NotificationTypeFollows,
		NotificationTypeLikes,
		NotificationTypeRecasts,
		NotificationTypeMentions,
		NotificationTypeReplies,
		NotificationTypeQuotes,
	}
}

// IsSupported reports whether t can be requested from the aggregator
func (t NotificationType) IsSupported() bool {
	for _, supported := range SupportedExternalTypes() {
		if t == supported {
			return true
		}
	}
	return false
}

// Source tells where a feed item came from
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// NotificationRecord is a persisted watch event written by the ingestion pipeline.
// CreatedAt may be nil for rows the pipeline has not finished writing; such rows
// are never returned by the feed.
type NotificationRecord struct {
	ID            string
	RecipientID   string
	PostReference string
	AuthorID      string
	Type          string
	Payload       json.RawMessage
	IsRead        bool
	CreatedAt     *time.Time
}

// Actor identifies who triggered a notification
type Actor struct {
	ID           string `json:"id"`
	Handle       string `json:"handle,omitempty"`
	DisplayLabel string `json:"display_label,omitempty"`
	AvatarRef    string `json:"avatar_ref,omitempty"`
}

// ExternalNotification is one item returned by the aggregator API.
// Timestamp fields are kept raw because the aggregator fills different ones
// depending on the notification type.
type ExternalNotification struct {
	Type                string
	Timestamp           string
	MostRecentTimestamp string
	CreatedAt           string
	Actor               *Actor
	PostReference       string
	Seen                bool
}

// ExternalPage is one page of aggregator results plus its opaque continuation
type ExternalPage struct {
	Items      []ExternalNotification
	NextCursor string
}

// NotificationView is the merged, source-independent feed item
type NotificationView struct {
	ID            string          `json:"id,omitempty"`
	Type          string          `json:"type"`
	Source        Source          `json:"source"`
	RecipientID   string          `json:"recipient_id"`
	Timestamp     string          `json:"timestamp,omitempty"`
	PostReference string          `json:"post_reference,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Actor         Actor           `json:"actor"`
	IsRead        bool            `json:"is_read"`
}

// FeedRequest carries the arguments of one feed call.
// Types == nil means all supported types, an empty non-nil slice means none.
type FeedRequest struct {
	RecipientID string
	Types       []string
	Cursor      string
	Limit       int
	Fresh       bool
}

// FeedPage is the response of one feed call
type FeedPage struct {
	Notifications []NotificationView `json:"notifications"`
	NextCursor    *string            `json:"next_cursor"`
}
