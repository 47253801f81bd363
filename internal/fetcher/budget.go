package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// DefaultRequestsPerWindow is the starting allowance before the server
// reports its own limits.
const DefaultRequestsPerWindow = 2000

// RequestBudget throttles requests using the rate-limit headers returned by
// the provenance service. Retry-After opens a cooldown; X-RateLimit-Remaining
// and X-RateLimit-Reset replace the local allowance.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	cooldown  time.Time
	// afterReset is set once a request has gone out past an elapsed reset.
	afterReset bool
	now        func() time.Time
	notifyCh   chan struct{}
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: DefaultRequestsPerWindow,
		reset:     time.Now().Add(time.Minute),
		now:       time.Now,
		notifyCh:  make(chan struct{}),
	}
}

func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire blocks until one request may be sent or ctx is done.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Acquire: nil context")
	}
	if b == nil || b.now == nil || b.notifyCh == nil {
		return fmt.Errorf("Acquire: uninitialized RequestBudget (use NewRequestBudget)")
	}

	for {
		b.mu.Lock()
		now := b.now()
		ch := b.notifyCh

		var until time.Time
		switch {
		case now.Before(b.cooldown):
			until = b.cooldown
		case b.remaining > 0:
			b.remaining--
			b.mu.Unlock()
			return nil
		case !now.Before(b.reset):
			// Window elapsed without fresh headers: allow a single request,
			// then wait for UpdateFromResponse.
			if !b.afterReset {
				b.afterReset = true
				b.mu.Unlock()
				return nil
			}
		default:
			until = b.reset
		}
		b.mu.Unlock()

		if err := wait(ctx, ch, until.Sub(now), !until.IsZero()); err != nil {
			return err
		}
	}
}

// wait returns when ch is closed, the timer fires (if timed) or ctx is done.
func wait(ctx context.Context, ch <-chan struct{}, d time.Duration, timed bool) error {
	var timerC <-chan time.Time
	if timed {
		if d < 0 {
			d = 0
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		timerC = timer.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
	case <-timerC:
	}
	return nil
}

func (b *RequestBudget) signalLocked() {
	close(b.notifyCh)
	b.notifyCh = make(chan struct{})
}

// UpdateFromResponse folds rate-limit headers from resp into the budget.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if resp == nil || b == nil || b.now == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false

	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		if until := b.now().Add(time.Duration(seconds) * time.Second); until.After(b.cooldown) {
			b.cooldown = until
			changed = true
		}
	}

	if val, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil && val >= 0 && val != b.remaining {
		b.remaining = val
		changed = true
	}

	if val, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil && val > 0 {
		if reset := time.Unix(val, 0); !b.reset.Equal(reset) {
			b.reset = reset
			changed = true
		}
	}

	if changed {
		b.afterReset = false
		b.signalLocked()
	}
}
