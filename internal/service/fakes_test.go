package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"notification-feed/internal/domain/entity"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// at returns baseTime shifted by n seconds
func at(n int) time.Time {
	return baseTime.Add(time.Duration(n) * time.Second)
}

func atPtr(n int) *time.Time {
	t := at(n)
	return &t
}

type memoryNotificationRepo struct {
	mu        sync.Mutex
	records   map[string]*entity.NotificationRecord
	listCalls int
	lastLimit int
	markCalls int
	markErr   error
	countErr  error
}

func newMemoryNotificationRepo(records ...*entity.NotificationRecord) *memoryNotificationRepo {
	repo := &memoryNotificationRepo{records: make(map[string]*entity.NotificationRecord)}
	for _, r := range records {
		repo.records[r.ID] = r
	}
	return repo
}

func (r *memoryNotificationRepo) ListBefore(ctx context.Context, recipientID string, before *time.Time, beforeID string, limit int) ([]*entity.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	r.lastLimit = limit

	var out []*entity.NotificationRecord
	for _, record := range r.records {
		if record.RecipientID != recipientID || record.CreatedAt == nil {
			continue
		}
		if before != nil && !record.CreatedAt.Before(*before) &&
			!(record.CreatedAt.Equal(*before) && record.ID < beforeID) {
			continue
		}
		copied := *record
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(*out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(*out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryNotificationRepo) MarkRead(ctx context.Context, recipientID string, ids []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls++
	if r.markErr != nil {
		return nil, r.markErr
	}
	var marked []string
	for _, id := range ids {
		record, ok := r.records[id]
		if !ok || record.RecipientID != recipientID || record.IsRead {
			continue
		}
		record.IsRead = true
		marked = append(marked, id)
	}
	return marked, nil
}

func (r *memoryNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	for _, record := range r.records {
		if record.RecipientID == recipientID && !record.IsRead && record.CreatedAt != nil {
			count++
		}
	}
	return count, nil
}

func (r *memoryNotificationRepo) isRead(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id].IsRead
}

func (r *memoryNotificationRepo) calls() (list, mark int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls, r.markCalls
}

// scriptedAggregator serves pages keyed by continuation ("" is the first page)
type scriptedAggregator struct {
	mu        sync.Mutex
	pages     map[string]*entity.ExternalPage
	calls     int
	lastLimit int
	err       error
	block     bool
	release   chan struct{}
}

func (a *scriptedAggregator) FetchNotifications(ctx context.Context, recipientID string, types []string, limit int, continuation string) (*entity.ExternalPage, error) {
	a.mu.Lock()
	a.calls++
	a.lastLimit = limit
	block, release, err := a.block, a.release, a.err
	page := a.pages[continuation]
	a.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &entity.ExternalPage{}, nil
	}
	return page, nil
}

func (a *scriptedAggregator) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// endlessAggregator always has another page and returns exactly limit items
type endlessAggregator struct {
	mu        sync.Mutex
	calls     int
	overshoot int
}

func (a *endlessAggregator) FetchNotifications(ctx context.Context, recipientID string, types []string, limit int, continuation string) (*entity.ExternalPage, error) {
	a.mu.Lock()
	a.calls++
	page := a.calls
	a.mu.Unlock()

	items := make([]entity.ExternalNotification, 0, limit+a.overshoot)
	for i := 0; i < limit+a.overshoot; i++ {
		items = append(items, entity.ExternalNotification{
			Type:          "likes",
			Timestamp:     at(-(page*1000 + i)).Format(time.RFC3339),
			PostReference: fmt.Sprintf("ext-%d-%d", page, i),
		})
	}
	return &entity.ExternalPage{Items: items, NextCursor: fmt.Sprintf("page-%d", page+1)}, nil
}

type staticEntitlements struct {
	mu      sync.Mutex
	allowed bool
	err     error
	calls   int
}

func (e *staticEntitlements) HasFeatureAccess(ctx context.Context, recipientID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.allowed, e.err
}

type staticBlocklist map[string]bool

func (b staticBlocklist) IsBlocked(recipientID string) bool {
	return b[recipientID]
}

type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	sets        int
	invalidated []string
	getErr      error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, key)
	delete(c.entries, key)
	return nil
}

type recordingUnreadCount struct {
	mu          sync.Mutex
	invalidated []string
}

func (u *recordingUnreadCount) Count(ctx context.Context, recipientID string) (int, error) {
	return 0, errors.New("not used")
}

func (u *recordingUnreadCount) Invalidate(ctx context.Context, recipientID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.invalidated = append(u.invalidated, recipientID)
	return nil
}

func (u *recordingUnreadCount) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.invalidated)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events [][]string
}

func (p *recordingPublisher) PublishRead(ctx context.Context, recipientID string, ids []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, append([]string(nil), ids...))
	return nil
}

type staticBlocklistRepo struct {
	ids []string
	err error
}

func (r *staticBlocklistRepo) ListBlocked(ctx context.Context) ([]string, error) {
	return r.ids, r.err
}

type countingEntitlementRepo struct {
	allowed bool
	err     error
	calls   int
}

func (r *countingEntitlementRepo) HasFeature(ctx context.Context, recipientID, feature string) (bool, error) {
	r.calls++
	return r.allowed, r.err
}
