package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunSharesConcurrentCalls(t *testing.T) {
	g := New()
	var calls atomic.Int32
	release := make(chan struct{})

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := g.Run(context.Background(), "external|1", func(ctx context.Context) (any, error) {
				calls.Add(1)
				<-release
				return "page", nil
			})
			if err != nil {
				t.Errorf("Run: %v", err)
			}
			results <- v
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	if got := calls.Load(); got != 1 {
		t.Fatalf("fn ran %d times, want 1", got)
	}
	for v := range results {
		if v != "page" {
			t.Fatalf("result = %v, want page", v)
		}
	}
}

func TestRunDistinctKeysRunSeparately(t *testing.T) {
	g := New()
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	g.Run(context.Background(), "a", fn)
	g.Run(context.Background(), "b", fn)
	g.Run(context.Background(), "a", fn)

	if got := calls.Load(); got != 3 {
		t.Fatalf("fn ran %d times, want 3 sequential runs", got)
	}
}

func TestRunCallerCancellation(t *testing.T) {
	g := New()
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := g.Run(ctx, "slow", func(ctx context.Context) (any, error) {
			<-release
			return nil, ctx.Err()
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancelled caller kept waiting")
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	g := New()
	boom := errors.New("boom")

	_, err := g.Run(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
