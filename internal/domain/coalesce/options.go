// Package coalesce collapses bursts of change notifications so each event
// is recomputed once per burst rather than once per notification.
package coalesce

// Option applies a configuration option to the in-memory coalescer.
type Option func(*inMemoryCoalescer)

// WithInitialCapacity pre-sizes the pending set.
func WithInitialCapacity(n int) Option {
	return func(c *inMemoryCoalescer) {
		if n > 0 {
			c.pending = make(map[string]struct{}, n)
		}
	}
}
