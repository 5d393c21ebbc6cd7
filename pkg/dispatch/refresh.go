package dispatch

import (
	"context"
	"log"
	"sync"
	"time"

	"uml-nli-be/pkg/operation"
)

const refreshEmitTimeout = 5 * time.Second

// Refresher asks the host for a fresh snapshot some time after a mutation
// was emitted. The delay gives the editor time to apply the operation; it is
// a heuristic, not a guarantee. Requests are fire-and-forget.
type Refresher struct {
	emitter operation.Emitter
	delay   time.Duration
	logger  *log.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

func NewRefresher(emitter operation.Emitter, delay time.Duration, logger *log.Logger) *Refresher {
	return &Refresher{
		emitter: emitter,
		delay:   delay,
		logger:  logger,
		timers:  make(map[*time.Timer]struct{}),
	}
}

// Schedule arms one delayed snapshot request for the session.
func (r *Refresher) Schedule(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		delete(r.timers, t)
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), refreshEmitTimeout)
		defer cancel()
		if err := r.emitter.Emit(ctx, sessionID, operation.RequestModelResources{}); err != nil {
			r.logger.Printf("[REFRESH] %s: snapshot request failed: %v", sessionID, err)
		}
	})
	r.timers[t] = struct{}{}
}

// Pending reports how many refreshes are armed.
func (r *Refresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Close stops every armed refresh.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for t := range r.timers {
		t.Stop()
	}
	r.timers = make(map[*time.Timer]struct{})
}
