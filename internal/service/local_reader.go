package service

import (
	"context"
	"fmt"
	"time"
)

// readLocal loads the recipient's persisted records older than the boundary.
// It over-fetches so the merge still has local items to interleave when the
// aggregator page is dense. Rows without created_at are dropped here, but
// rawCount keeps them so the window check sees what the store returned.
func (s *feedService) readLocal(ctx context.Context, recipientID string, before *time.Time, beforeID string, limit int) (localBatch, error) {
	window := limit * s.cfg.OverFetchFactor

	rows, err := s.repo.ListBefore(ctx, recipientID, before, beforeID, window)
	if err != nil {
		return localBatch{}, fmt.Errorf("failed to read local notifications: %w", err)
	}

	batch := localBatch{
		rawCount: len(rows),
		window:   window,
	}
	for _, row := range rows {
		if row == nil || row.CreatedAt == nil {
			continue
		}
		batch.records = append(batch.records, row)
	}

	return batch, nil
}
