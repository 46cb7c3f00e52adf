package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/service"
)

const feedCachePrefix = "feed:page:"

// responseCache memoizes whole feed pages
type responseCache struct {
	cache service.Cache
	ttl   time.Duration
}

// feedCacheKey hashes everything that shapes a page. types must already be
// normalized; an empty filter and the full filter produce different keys.
func feedCacheKey(recipientID string, types []string, rawCursor string, limit int) string {
	h := sha256.New()
	h.Write([]byte(recipientID))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(types, ",")))
	h.Write([]byte{0})
	h.Write([]byte(rawCursor))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	return feedCachePrefix + hex.EncodeToString(h.Sum(nil))
}

// getOrCompute serves key from the cache or builds and stores it. bypass skips
// both the lookup and the write so a forced refresh never replaces the entry
// other callers see.
func (c *responseCache) getOrCompute(ctx context.Context, key string, bypass bool, compute func(ctx context.Context) (*entity.FeedPage, error)) (*entity.FeedPage, error) {
	if c == nil || c.cache == nil || bypass {
		return compute(ctx)
	}

	data, found, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Feed cache read failed for %s: %v", key, err)
	}
	if found {
		var page entity.FeedPage
		if err := json.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
		log.Printf("Discarding undecodable feed cache entry %s", key)
	}

	page, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(page)
	if err != nil {
		log.Printf("Failed to encode feed page for cache: %v", err)
		return page, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		log.Printf("Feed cache write failed for %s: %v", key, err)
	}

	return page, nil
}
