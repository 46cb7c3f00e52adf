package service

import (
	"context"
	"fmt"
	"sync"

	"notification-feed/internal/domain/repository"
)

// BlocklistSnapshot keeps the moderation block-list in memory so membership
// checks never reach storage. Refresh swaps in a fresh copy.
type BlocklistSnapshot struct {
	repo    repository.BlocklistRepository
	mu      sync.RWMutex
	blocked map[string]struct{}
}

// NewBlocklistSnapshot creates an empty snapshot backed by repo
func NewBlocklistSnapshot(repo repository.BlocklistRepository) *BlocklistSnapshot {
	return &BlocklistSnapshot{
		repo:    repo,
		blocked: make(map[string]struct{}),
	}
}

// IsBlocked reports whether the recipient is on the block-list
func (b *BlocklistSnapshot) IsBlocked(recipientID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blocked[recipientID]
	return ok
}

// Size returns the number of blocked recipients in the snapshot
func (b *BlocklistSnapshot) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blocked)
}

// Refresh reloads the snapshot. On failure the previous snapshot stays.
func (b *BlocklistSnapshot) Refresh(ctx context.Context) error {
	ids, err := b.repo.ListBlocked(ctx)
	if err != nil {
		return fmt.Errorf("failed to load block-list: %w", err)
	}

	blocked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		blocked[id] = struct{}{}
	}

	b.mu.Lock()
	b.blocked = blocked
	b.mu.Unlock()

	return nil
}
