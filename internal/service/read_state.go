package service

import (
	"context"
	"log"

	"notification-feed/internal/domain/entity"
)

// commitReadState marks the returned local records read. Only records that
// are still unread are sent to the store, and the store write is scoped to
// their ids. A failed write is logged and left for a later page view to retry.
func (s *feedService) commitReadState(ctx context.Context, recipientID string, returned []*entity.NotificationRecord) int {
	if len(returned) == 0 {
		return 0
	}

	ids := make([]string, 0, len(returned))
	for _, record := range returned {
		if !record.IsRead {
			ids = append(ids, record.ID)
		}
	}

	var marked []string
	if len(ids) > 0 {
		changed, err := s.repo.MarkRead(ctx, recipientID, ids)
		if err != nil {
			log.Printf("Failed to mark %d notifications read for recipient %s: %v", len(ids), recipientID, err)
		} else {
			marked = changed
		}
	}

	s.readStateChanged(ctx, recipientID, marked)
	return len(marked)
}

// readStateChanged refreshes the unread badge and announces the records this
// call flipped. Records another request marked first are not announced again.
func (s *feedService) readStateChanged(ctx context.Context, recipientID string, marked []string) {
	if s.unreadCount != nil {
		if err := s.unreadCount.Invalidate(ctx, recipientID); err != nil {
			log.Printf("Failed to invalidate unread count for recipient %s: %v", recipientID, err)
		}
	}

	if len(marked) > 0 && s.publisher != nil {
		if err := s.publisher.PublishRead(ctx, recipientID, marked); err != nil {
			log.Printf("Failed to publish read event for recipient %s: %v", recipientID, err)
		}
	}
}
