// Package worker defines worker contracts for asynchronous leaderboard
// recomputation.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/clubhouselabs/fairway/internal/adapters/mq/queue"
	"github.com/clubhouselabs/fairway/pkg/logger"
	"github.com/clubhouselabs/fairway/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Recomputer refreshes derived state for an event after its rounds changed.
type Recomputer interface {
	RecomputeEvent(ctx context.Context, eventID string) error
}

// Coalescer clears the pending mark before a recompute reads state.
type Coalescer interface {
	Clear(ctx context.Context, eventID string)
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Notification
}

// Worker processes notifications using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// RecomputeWorker implements Worker for processing change notifications.
type RecomputeWorker struct {
	queue      Queue
	recomputer Recomputer
	coalescer  Coalescer
	name       string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewRecomputeWorker creates a new worker with configuration options.
func NewRecomputeWorker(q Queue, recomputer Recomputer, coalescer Coalescer, opts ...Option) *RecomputeWorker {
	w := &RecomputeWorker{
		queue:      q,
		recomputer: recomputer,
		coalescer:  coalescer,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *RecomputeWorker) Run(ctx context.Context) {
	defer close(w.done)

	notifications := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-notifications:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			if err := w.process(ctx, n); err != nil {
				w.logger.Error(ctx, "error processing notification", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *RecomputeWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process handles a single notification. The pending mark is cleared
// before the recompute reads state, so a change arriving mid-recompute
// re-arms a fresh pass instead of being lost.
func (w *RecomputeWorker) process(ctx context.Context, n queue.Notification) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if w.coalescer != nil {
		w.coalescer.Clear(ctx, n.EventID)
	}

	if err := w.recomputer.RecomputeEvent(ctx, n.EventID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "recompute_error")
		w.logger.Error(ctx, "recompute failed",
			logger.String("eventID", n.EventID),
			logger.Error(err),
		)
		return fmt.Errorf("recompute event %s: %w", n.EventID, err)
	}

	metrics.RecordLeaderboardRefresh()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*RecomputeWorker

	// Logging
	logger logger.Logger
}

// NewPool creates a pool of count workers reading from q.
func NewPool(count int, q Queue, recomputer Recomputer, coalescer Coalescer) *Pool {
	if count < 1 {
		count = 1
	}

	p := &Pool{
		workers: make([]*RecomputeWorker, 0, count),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < count; i++ {
		p.workers = append(p.workers, NewRecomputeWorker(
			q, recomputer, coalescer,
			WithName("worker-"+strconv.Itoa(i)),
		))
	}

	metrics.UpdateWorkerCount(count)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop shuts down all workers, waiting up to poolShutdownTimeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown failed", logger.Error(err))
		}
	}
	p.logger.Info(ctx, "worker pool stopped")
}
