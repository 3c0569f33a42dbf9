package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/clubhouselabs/fairway/internal/adapters/mq/queue"
	"github.com/clubhouselabs/fairway/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// recordingRecomputer captures recompute calls.
type recordingRecomputer struct {
	mu     sync.Mutex
	events []string
	err    error
	calls  chan string
}

func newRecordingRecomputer() *recordingRecomputer {
	return &recordingRecomputer{calls: make(chan string, 100)}
}

func (r *recordingRecomputer) RecomputeEvent(ctx context.Context, eventID string) error {
	r.mu.Lock()
	r.events = append(r.events, eventID)
	r.mu.Unlock()
	r.calls <- eventID
	return r.err
}

func (r *recordingRecomputer) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// recordingCoalescer captures the order of Clear calls relative to recomputes.
type recordingCoalescer struct {
	mu      sync.Mutex
	cleared []string
}

func (c *recordingCoalescer) Clear(ctx context.Context, eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, eventID)
}

func (c *recordingCoalescer) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.cleared))
	copy(out, c.cleared)
	return out
}

func waitFor(ch chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestRecomputeWorker(t *testing.T) {
	convey.Convey("Given a recompute worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		defer q.Close()

		recomputer := newRecordingRecomputer()
		coalescer := &recordingCoalescer{}

		convey.Convey("It processes queued notifications", func() {
			w := NewRecomputeWorker(q, recomputer, coalescer)
			go w.Run(ctx)
			defer func() { _ = w.Shutdown(context.Background()) }()

			convey.So(q.Enqueue(ctx, queue.Notification{EventID: "event-1"}), convey.ShouldBeTrue)

			got, ok := waitFor(recomputer.calls, time.Second)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, "event-1")

			convey.Convey("And clears the pending mark for the event", func() {
				convey.So(coalescer.seen(), convey.ShouldContain, "event-1")
			})
		})

		convey.Convey("A failing recompute does not stop the worker", func() {
			recomputer.err = errors.New("boom")
			w := NewRecomputeWorker(q, recomputer, coalescer)
			go w.Run(ctx)
			defer func() { _ = w.Shutdown(context.Background()) }()

			convey.So(q.Enqueue(ctx, queue.Notification{EventID: "bad"}), convey.ShouldBeTrue)
			_, ok := waitFor(recomputer.calls, time.Second)
			convey.So(ok, convey.ShouldBeTrue)

			convey.So(q.Enqueue(ctx, queue.Notification{EventID: "good"}), convey.ShouldBeTrue)
			got, ok := waitFor(recomputer.calls, time.Second)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, "good")
		})

		convey.Convey("Shutdown returns once the loop exits", func() {
			w := NewRecomputeWorker(q, recomputer, coalescer)
			go w.Run(ctx)

			err := w.Shutdown(context.Background())
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("A worker without a coalescer still recomputes", func() {
			w := NewRecomputeWorker(q, recomputer, nil)
			go w.Run(ctx)
			defer func() { _ = w.Shutdown(context.Background()) }()

			convey.So(q.Enqueue(ctx, queue.Notification{EventID: "solo"}), convey.ShouldBeTrue)
			got, ok := waitFor(recomputer.calls, time.Second)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(got, convey.ShouldEqual, "solo")
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		defer q.Close()

		recomputer := newRecordingRecomputer()
		coalescer := &recordingCoalescer{}

		convey.Convey("All workers drain the shared queue", func() {
			p := NewPool(4, q, recomputer, coalescer)
			p.Start(ctx)
			defer p.Stop()

			const total = 20
			for i := 0; i < total; i++ {
				convey.So(q.Enqueue(ctx, queue.Notification{EventID: "event"}), convey.ShouldBeTrue)
			}

			for i := 0; i < total; i++ {
				_, ok := waitFor(recomputer.calls, time.Second)
				convey.So(ok, convey.ShouldBeTrue)
			}
			convey.So(len(recomputer.seen()), convey.ShouldEqual, total)
		})

		convey.Convey("A non-positive count still yields one worker", func() {
			p := NewPool(0, q, recomputer, coalescer)
			convey.So(len(p.workers), convey.ShouldEqual, 1)
		})
	})
}
