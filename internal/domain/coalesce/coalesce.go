// Package coalesce collapses bursts of change notifications so each event
// is recomputed once per burst rather than once per notification.
package coalesce

import (
	"context"
	"sync"
	"sync/atomic"
)

// Coalescer tracks which events already have a recompute pending.
type Coalescer interface {
	// MarkPending atomically checks whether a recompute is already pending
	// for the event and marks one pending if not. Returns true if one was
	// already pending (the caller should drop the notification), false if
	// this notification should be enqueued.
	MarkPending(ctx context.Context, eventID string) bool

	// Clear removes the pending mark. Workers call this before reading
	// state so a change arriving mid-recompute re-arms a fresh pass.
	Clear(ctx context.Context, eventID string)

	Size() int64
}

// inMemoryCoalescer implements Coalescer with a mutex-guarded set.
type inMemoryCoalescer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	size    atomic.Int64
}

// New creates an in-memory coalescer.
func New(opts ...Option) Coalescer {
	c := &inMemoryCoalescer{
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkPending atomically checks-and-marks the event.
func (c *inMemoryCoalescer) MarkPending(ctx context.Context, eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[eventID]; exists {
		return true
	}
	c.pending[eventID] = struct{}{}
	c.size.Add(1)
	return false
}

// Clear removes the pending mark for the event.
func (c *inMemoryCoalescer) Clear(ctx context.Context, eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[eventID]; exists {
		delete(c.pending, eventID)
		c.size.Add(-1)
	}
}

// Size returns the number of events with a pending recompute.
func (c *inMemoryCoalescer) Size() int64 {
	return c.size.Load()
}
