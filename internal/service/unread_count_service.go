package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"notification-feed/internal/domain/repository"
	"notification-feed/internal/domain/service"
	"notification-feed/pkg/validation"
)

const (
	unreadCountPrefix      = "feed:unread:"
	unreadGenerationPrefix = "feed:unread-gen:"
)

// unreadCountService counts persisted unread records only. Aggregator
// notifications are left out so that badge polling never spends the
// aggregator rate limit; the count therefore undercounts when unseen
// aggregator items exist.
//
// Cached counts are tagged with the recipient's generation, which Invalidate
// replaces. A count read from the store before an invalidation carries the old
// generation and is never served after it.
type unreadCountService struct {
	repo      repository.NotificationRepository
	cache     service.Cache
	blocklist service.Blocklist
	ttl       time.Duration
}

// NewUnreadCountService creates a new unread count service
func NewUnreadCountService(
	repo repository.NotificationRepository,
	cache service.Cache,
	blocklist service.Blocklist,
	ttl time.Duration,
) service.UnreadCountService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &unreadCountService{
		repo:      repo,
		cache:     cache,
		blocklist: blocklist,
		ttl:       ttl,
	}
}

func unreadCountKey(recipientID string) string {
	return unreadCountPrefix + recipientID
}

func unreadGenerationKey(recipientID string) string {
	return unreadGenerationPrefix + recipientID
}

// generation returns the recipient's current cache generation. ok is false
// when it could not be read, in which case the cache is bypassed.
func (s *unreadCountService) generation(ctx context.Context, recipientID string) (string, bool) {
	data, _, err := s.cache.Get(ctx, unreadGenerationKey(recipientID))
	if err != nil {
		log.Printf("Unread count generation read failed for recipient %s: %v", recipientID, err)
		return "", false
	}
	return string(data), true
}

func (s *unreadCountService) Count(ctx context.Context, recipientID string) (int, error) {
	if err := validation.ValidateRecipientID(recipientID); err != nil {
		return 0, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	if s.blocklist != nil && s.blocklist.IsBlocked(recipientID) {
		return 0, nil
	}

	key := unreadCountKey(recipientID)
	var (
		gen      string
		useCache bool
	)
	if s.cache != nil {
		gen, useCache = s.generation(ctx, recipientID)
	}

	if useCache {
		data, found, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("Unread count cache read failed for recipient %s: %v", recipientID, err)
		}
		if found {
			if tag, value, ok := strings.Cut(string(data), "|"); ok && tag == gen {
				if count, err := strconv.Atoi(value); err == nil {
					return count, nil
				}
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if useCache {
		if err := s.cache.Set(ctx, key, []byte(gen+"|"+strconv.Itoa(count)), s.ttl); err != nil {
			log.Printf("Unread count cache write failed for recipient %s: %v", recipientID, err)
		}
	}

	return count, nil
}

func (s *unreadCountService) Invalidate(ctx context.Context, recipientID string) error {
	if s.cache == nil {
		return nil
	}
	// The generation outlives any count tagged with the previous one.
	if err := s.cache.Set(ctx, unreadGenerationKey(recipientID), []byte(uuid.NewString()), 10*s.ttl); err != nil {
		return fmt.Errorf("failed to invalidate unread count: %w", err)
	}
	if err := s.cache.Invalidate(ctx, unreadCountKey(recipientID)); err != nil {
		return fmt.Errorf("failed to invalidate unread count: %w", err)
	}
	return nil
}
