package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestBlocklistRefresherLoadsAndRepeats(t *testing.T) {
	refresher := &countingRefresher{}
	b := NewBlocklistRefresher(refresher, time.Second)

	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	if got := refresher.calls.Load(); got != 1 {
		t.Fatalf("initial refreshes = %d, want 1", got)
	}

	deadline := time.Now().Add(3 * time.Second)
	for refresher.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if refresher.calls.Load() < 2 {
		t.Fatalf("scheduled refresh never ran")
	}
}

func TestBlocklistRefresherFailsWithoutInitialLoad(t *testing.T) {
	b := NewBlocklistRefresher(&countingRefresher{err: errors.New("db down")}, time.Minute)
	if err := b.Start(); err == nil {
		t.Fatalf("expected the initial load error")
	}
}
