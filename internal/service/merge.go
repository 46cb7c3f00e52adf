package service

import (
	"sort"
	"time"

	"notification-feed/internal/domain/entity"
	"notification-feed/pkg/timestamp"
)

// feedItem is one merge candidate. record is set only for local items and is
// what the read-state commit works from.
type feedItem struct {
	view   entity.NotificationView
	at     time.Time
	hasAt  bool
	record *entity.NotificationRecord
}

// sortTimestamp returns the first of primary, most-recent and created that parses
func sortTimestamp(primary, mostRecent, created string) (time.Time, bool) {
	for _, candidate := range []string{primary, mostRecent, created} {
		if t, ok := timestamp.Parse(candidate); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func localFeedItem(recipientID string, record *entity.NotificationRecord) feedItem {
	item := feedItem{
		view: entity.NotificationView{
			ID:            record.ID,
			Type:          record.Type,
			Source:        entity.SourceLocal,
			RecipientID:   recipientID,
			PostReference: record.PostReference,
			Payload:       record.Payload,
			Actor:         resolveLocalActor(record),
			IsRead:        record.IsRead,
		},
		record: record,
	}
	if record.CreatedAt != nil {
		item.at, item.hasAt = record.CreatedAt.UTC(), true
		item.view.Timestamp = timestamp.Format(item.at)
	}
	return item
}

func externalFeedItem(recipientID string, ext *entity.ExternalNotification) feedItem {
	item := feedItem{
		view: entity.NotificationView{
			Type:          ext.Type,
			Source:        entity.SourceExternal,
			RecipientID:   recipientID,
			PostReference: ext.PostReference,
			Actor:         resolveExternalActor(ext),
			IsRead:        ext.Seen,
		},
	}
	item.at, item.hasAt = sortTimestamp(ext.Timestamp, ext.MostRecentTimestamp, ext.CreatedAt)
	if item.hasAt {
		item.view.Timestamp = timestamp.Format(item.at)
	}
	return item
}

// mergeFeed maps both sources to views, orders them newest first and keeps
// at most limit items. Items without a usable timestamp go after every item
// that has one and keep their relative order.
func mergeFeed(recipientID string, local []*entity.NotificationRecord, external []entity.ExternalNotification, limit int) []feedItem {
	items := make([]feedItem, 0, len(local)+len(external))
	for _, record := range local {
		items = append(items, localFeedItem(recipientID, record))
	}
	for i := range external {
		items = append(items, externalFeedItem(recipientID, &external[i]))
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.hasAt && b.hasAt {
			return a.at.After(b.at)
		}
		return a.hasAt && !b.hasAt
	})

	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// views strips merge bookkeeping from items
func views(items []feedItem) []entity.NotificationView {
	out := make([]entity.NotificationView, 0, len(items))
	for _, item := range items {
		out = append(out, item.view)
	}
	return out
}

// returnedRecords lists the local records that made the cut
func returnedRecords(items []feedItem) []*entity.NotificationRecord {
	var records []*entity.NotificationRecord
	for _, item := range items {
		if item.record != nil {
			records = append(records, item.record)
		}
	}
	return records
}
