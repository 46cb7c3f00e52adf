package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/repository"
	"notification-feed/internal/domain/service"
	"notification-feed/pkg/cursor"
	"notification-feed/pkg/validation"
)

// FeedConfig holds the feed's paging budgets
type FeedConfig struct {
	MaxLimit        int
	ExternalCap     int
	OverFetchFactor int
	ExternalTimeout time.Duration
	ResponseTTL     time.Duration
}

// DefaultFeedConfig returns the production paging budgets
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		MaxLimit:        25,
		ExternalCap:     100,
		OverFetchFactor: 2,
		ExternalTimeout: 10 * time.Second,
		ResponseTTL:     90 * time.Second,
	}
}

// FeedDependencies are the collaborators of the feed service.
// Cache, Dedup and Publisher are optional.
type FeedDependencies struct {
	Repo         repository.NotificationRepository
	External     service.ExternalNotificationClient
	Entitlements service.EntitlementChecker
	Blocklist    service.Blocklist
	UnreadCount  service.UnreadCountService
	Cache        service.Cache
	Dedup        service.Deduplicator
	Publisher    service.ReadStatePublisher
}

type feedService struct {
	repo         repository.NotificationRepository
	external     service.ExternalNotificationClient
	entitlements service.EntitlementChecker
	blocklist    service.Blocklist
	unreadCount  service.UnreadCountService
	dedup        service.Deduplicator
	publisher    service.ReadStatePublisher
	responses    *responseCache
	cfg          FeedConfig
}

// NewFeedService creates a new feed service
func NewFeedService(deps FeedDependencies, cfg FeedConfig) service.FeedService {
	defaults := DefaultFeedConfig()
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.ExternalCap <= 0 {
		cfg.ExternalCap = defaults.ExternalCap
	}
	if cfg.OverFetchFactor <= 0 {
		cfg.OverFetchFactor = defaults.OverFetchFactor
	}
	if cfg.ExternalTimeout <= 0 {
		cfg.ExternalTimeout = defaults.ExternalTimeout
	}
	if cfg.ResponseTTL <= 0 {
		cfg.ResponseTTL = defaults.ResponseTTL
	}

	return &feedService{
		repo:         deps.Repo,
		external:     deps.External,
		entitlements: deps.Entitlements,
		blocklist:    deps.Blocklist,
		unreadCount:  deps.UnreadCount,
		dedup:        deps.Dedup,
		publisher:    deps.Publisher,
		responses:    &responseCache{cache: deps.Cache, ttl: cfg.ResponseTTL},
		cfg:          cfg,
	}
}

func (s *feedService) Feed(ctx context.Context, req *entity.FeedRequest) (*entity.FeedPage, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", service.ErrInvalidInput)
	}
	if err := validation.ValidateRecipientID(req.RecipientID); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	if s.isBlocked(req.RecipientID) {
		return emptyPage(), nil
	}

	if req.Limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", service.ErrInvalidInput)
	}
	limit := min(req.Limit, s.cfg.MaxLimit)

	types, err := normalizeTypes(req.Types)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	key := feedCacheKey(req.RecipientID, types, req.Cursor, limit)
	return s.responses.getOrCompute(ctx, key, req.Fresh, func(ctx context.Context) (*entity.FeedPage, error) {
		return s.buildPage(ctx, req.RecipientID, types, req.Cursor, limit)
	})
}

// buildPage runs one uncached feed computation
func (s *feedService) buildPage(ctx context.Context, recipientID string, types []string, rawCursor string, limit int) (*entity.FeedPage, error) {
	state := cursor.Decode(rawCursor)
	callExternal, budget := s.planExternal(ctx, recipientID, types, state, limit)

	var (
		local    localBatch
		external externalBatch
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		batch, err := s.readLocal(gctx, recipientID, state.LocalBoundary, state.LocalBoundaryID, limit)
		local = batch
		return err
	})
	if callExternal {
		g.Go(func() error {
			batch, err := s.fetchExternal(gctx, recipientID, types, state.ExternalCursor, budget)
			external = batch
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeFeed(recipientID, local.records, external.items, limit)
	s.commitReadState(ctx, recipientID, returnedRecords(merged))

	return &entity.FeedPage{
		Notifications: views(merged),
		NextCursor:    nextCursor(state, local, external, merged, s.cfg.ExternalCap),
	}, nil
}

func (s *feedService) MarkRead(ctx context.Context, recipientID string, ids []string) (int, error) {
	if err := validation.ValidateRecipientID(recipientID); err != nil {
		return 0, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	if err := validation.ValidateNotificationIDs(ids); err != nil {
		return 0, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	if s.isBlocked(recipientID) {
		return 0, nil
	}

	marked, err := s.repo.MarkRead(ctx, recipientID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.readStateChanged(ctx, recipientID, marked)
	return len(marked), nil
}

func (s *feedService) isBlocked(recipientID string) bool {
	return s.blocklist != nil && s.blocklist.IsBlocked(recipientID)
}

func emptyPage() *entity.FeedPage {
	return &entity.FeedPage{Notifications: []entity.NotificationView{}}
}

// normalizeTypes expands a nil filter to every supported type and validates,
// de-duplicates and sorts an explicit one. An explicit empty filter stays
// empty.
func normalizeTypes(types []string) ([]string, error) {
	if types == nil {
		supported := entity.SupportedExternalTypes()
		all := make([]string, 0, len(supported))
		for _, t := range supported {
			all = append(all, string(t))
		}
		sort.Strings(all)
		return all, nil
	}

	seen := make(map[string]struct{}, len(types))
	normalized := make([]string, 0, len(types))
	for _, raw := range types {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		if !entity.NotificationType(t).IsSupported() {
			return nil, fmt.Errorf("unsupported notification type %q", raw)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		normalized = append(normalized, t)
	}
	sort.Strings(normalized)

	return normalized, nil
}
