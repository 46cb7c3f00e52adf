package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"notification-feed/internal/domain/repository"
	"notification-feed/internal/domain/service"
)

// FeatureExternalNotifications is the grant that unlocks aggregator notifications
const FeatureExternalNotifications = "external_notifications"

const entitlementPrefix = "feed:entitlement:"

type entitlementChecker struct {
	repo  repository.EntitlementRepository
	cache service.Cache
	ttl   time.Duration
}

// NewEntitlementChecker creates an entitlement checker that memoizes grants
func NewEntitlementChecker(repo repository.EntitlementRepository, cache service.Cache, ttl time.Duration) service.EntitlementChecker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &entitlementChecker{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (c *entitlementChecker) HasFeatureAccess(ctx context.Context, recipientID string) (bool, error) {
	key := entitlementPrefix + recipientID

	if c.cache != nil {
		data, found, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Printf("Entitlement cache read failed for recipient %s: %v", recipientID, err)
		}
		if found {
			return string(data) == "1", nil
		}
	}

	allowed, err := c.repo.HasFeature(ctx, recipientID, FeatureExternalNotifications)
	if err != nil {
		return false, fmt.Errorf("failed to look up entitlement: %w", err)
	}

	if c.cache != nil {
		value := []byte("0")
		if allowed {
			value = []byte("1")
		}
		if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
			log.Printf("Entitlement cache write failed for recipient %s: %v", recipientID, err)
		}
	}

	return allowed, nil
}
