package dedup

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent calls with the same key into one execution.
// The shared call runs detached from any single caller's cancellation so
// that one caller giving up does not fail the others; each caller still
// stops waiting when its own context is done.
type Group struct {
	group singleflight.Group
}

// New creates an empty group
func New() *Group {
	return &Group{}
}

// Run executes fn once per key among concurrent callers and hands every
// caller the same result
func (g *Group) Run(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)

	ch := g.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
