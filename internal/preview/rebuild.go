package preview

import (
	"context"
	"sync"
	"time"
)

// debouncer coalesces triggers arriving within delay into one request.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	req   chan struct{}
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, req: make(chan struct{}, 1)}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.request)
}

// request enqueues a rebuild without waiting; a queued request absorbs it.
func (d *debouncer) request() {
	select {
	case d.req <- struct{}{}:
	default:
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// rebuildWorker runs builds one at a time on the goroutine calling run.
// Requests arriving during a build collapse into the single slot of the
// request channel, so exactly one more build follows the current one.
type rebuildWorker struct {
	rebuild func(context.Context)
}

func (w *rebuildWorker) run(ctx context.Context, req <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			if ctx.Err() != nil {
				return
			}
			w.rebuild(ctx)
		}
	}
}
