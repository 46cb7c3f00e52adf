package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/service"
	"notification-feed/pkg/cursor"
)

// externalBudget is how many aggregator items this page may still consume
func (s *feedService) externalBudget(limit int, state cursor.State) int {
	return min(limit, s.cfg.ExternalCap-state.ExternalDeliveredCount)
}

// planExternal decides whether the aggregator is called for this page and
// with what budget. The aggregator is skipped when no external type is
// selected, when the session has used up its cap, when a continued session
// has no aggregator continuation left, or when the recipient lacks the
// entitlement.
func (s *feedService) planExternal(ctx context.Context, recipientID string, types []string, state cursor.State, limit int) (bool, int) {
	if len(types) == 0 {
		return false, 0
	}

	if state.ExternalDeliveredCount >= s.cfg.ExternalCap {
		return false, 0
	}

	if !state.IsZero() && state.ExternalCursor == "" {
		return false, 0
	}

	budget := s.externalBudget(limit, state)
	if budget <= 0 {
		return false, 0
	}

	if s.entitlements == nil {
		return false, 0
	}
	allowed, err := s.entitlements.HasFeatureAccess(ctx, recipientID)
	if err != nil {
		log.Printf("Entitlement lookup failed for recipient %s, skipping external notifications: %v", recipientID, err)
		return false, 0
	}

	return allowed, budget
}

// fetchExternal calls the aggregator once per distinct request, however many
// callers ask concurrently, and never hands back more than budget items.
func (s *feedService) fetchExternal(ctx context.Context, recipientID string, types []string, continuation string, budget int) (externalBatch, error) {
	if budget <= 0 {
		return externalBatch{}, nil
	}

	fetch := func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ExternalTimeout)
		defer cancel()
		return s.external.FetchNotifications(ctx, recipientID, types, budget, continuation)
	}

	var (
		result any
		err    error
	)
	if s.dedup != nil {
		result, err = s.dedup.Run(ctx, externalFetchKey(recipientID, types, continuation, budget), fetch)
	} else {
		result, err = fetch(ctx)
	}
	if err != nil {
		return externalBatch{}, fmt.Errorf("%w: %w", service.ErrExternalSource, err)
	}

	page, ok := result.(*entity.ExternalPage)
	if !ok || page == nil {
		return externalBatch{}, fmt.Errorf("%w: unexpected aggregator result %T", service.ErrExternalSource, result)
	}

	items := page.Items
	if len(items) > budget {
		items = items[:budget]
	}

	return externalBatch{
		items:      items,
		nextCursor: page.NextCursor,
	}, nil
}

func externalFetchKey(recipientID string, types []string, continuation string, budget int) string {
	return strings.Join([]string{
		"external",
		recipientID,
		strings.Join(types, ","),
		continuation,
		strconv.Itoa(budget),
	}, "|")
}
