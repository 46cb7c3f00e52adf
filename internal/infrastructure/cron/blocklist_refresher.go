package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher is anything that can reload itself from storage
type Refresher interface {
	Refresh(ctx context.Context) error
}

// BlocklistRefresher periodically reloads the moderation block-list snapshot
type BlocklistRefresher struct {
	blocklist Refresher
	cron      *cron.Cron
	interval  time.Duration
}

// NewBlocklistRefresher creates a new block-list refresher
func NewBlocklistRefresher(blocklist Refresher, interval time.Duration) *BlocklistRefresher {
	return &BlocklistRefresher{
		blocklist: blocklist,
		cron:      cron.New(),
		interval:  interval,
	}
}

// Start loads the block-list once and schedules periodic refreshes.
// A failed initial load is returned so the service does not start without it.
func (b *BlocklistRefresher) Start() error {
	if err := b.refresh(); err != nil {
		return fmt.Errorf("failed initial block-list load: %w", err)
	}

	cronExpr := fmt.Sprintf("@every %s", b.interval.String())
	log.Printf("Starting block-list refresher with interval: %s", b.interval)

	if _, err := b.cron.AddFunc(cronExpr, func() {
		if err := b.refresh(); err != nil {
			log.Printf("Error refreshing block-list: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	b.cron.Start()
	return nil
}

// Stop stops the refresher and waits for a running refresh to finish
func (b *BlocklistRefresher) Stop() {
	log.Println("Stopping block-list refresher...")
	ctx := b.cron.Stop()
	<-ctx.Done()
	log.Println("Block-list refresher stopped")
}

func (b *BlocklistRefresher) refresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return b.blocklist.Refresh(ctx)
}
