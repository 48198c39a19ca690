package preview

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/emailbuilder/internal/build"
)

// RebuildFunc runs the stages a trigger requires.
type RebuildFunc func(ctx context.Context, trigger build.Trigger)

// Queue is a single-flight rebuild queue. At most one RebuildFunc runs at a
// time; triggers enqueued while it runs are merged into one pending request.
type Queue struct {
	run RebuildFunc

	mu      sync.Mutex
	pending build.Trigger
	wake    chan struct{}
}

// NewQueue creates a queue that runs fn for each merged request.
func NewQueue(fn RebuildFunc) *Queue {
	return &Queue{run: fn, wake: make(chan struct{}, 1)}
}

// Enqueue records a rebuild request. It never blocks.
func (q *Queue) Enqueue(t build.Trigger) {
	if t == build.TriggerNone {
		return
	}
	q.mu.Lock()
	q.pending = q.pending.Union(t)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the merged trigger waiting to run.
func (q *Queue) Pending() build.Trigger {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Run processes requests until ctx is done. It must be called from one goroutine.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
		q.mu.Lock()
		t := q.pending
		q.pending = build.TriggerNone
		q.mu.Unlock()
		if t == build.TriggerNone {
			continue
		}
		q.run(ctx, t)
	}
}
