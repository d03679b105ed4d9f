package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	maxErrorCount = 3
	backoffFactor = 1.5
	maxBackoff    = 60 * time.Second
)

type hostState struct {
	next       time.Time
	errorCount int
	backoff    time.Duration
}

// HostLimiter spaces out requests to the same host by a jittered delay
// between minDelay and maxDelay. A zero delay range disables pacing.
type HostLimiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	mu       sync.Mutex
	hosts    map[string]*hostState
	now      func() time.Time
}

func NewHostLimiter(minDelay, maxDelay time.Duration) *HostLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &HostLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		hosts:    make(map[string]*hostState),
		now:      time.Now,
	}
}

func (h *HostLimiter) Enabled() bool {
	return h != nil && h.maxDelay > 0
}

// Wait blocks until the next slot for host is due or ctx is done.
// Slots are reserved under the lock so concurrent callers queue up instead of
// all firing when the delay elapses.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if !h.Enabled() {
		return nil
	}

	h.mu.Lock()
	state := h.state(host)
	now := h.now()
	slot := state.next
	if slot.Before(now) {
		slot = now
	}
	state.next = slot.Add(h.calculateDelay() + state.backoff)
	h.mu.Unlock()

	waitTime := slot.Sub(now)
	if waitTime <= 0 {
		return nil
	}

	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordSuccess clears any backoff accumulated for host.
func (h *HostLimiter) RecordSuccess(host string) {
	if !h.Enabled() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.state(host)
	state.errorCount = 0
	state.backoff = 0
}

// RecordError grows the backoff for host after repeated failures.
func (h *HostLimiter) RecordError(host string) {
	if !h.Enabled() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.state(host)
	state.errorCount++
	if state.errorCount < maxErrorCount {
		return
	}

	if state.backoff == 0 {
		state.backoff = h.minDelay
		if state.backoff == 0 {
			state.backoff = h.maxDelay
		}
	} else {
		state.backoff = time.Duration(float64(state.backoff) * backoffFactor)
	}
	if state.backoff > maxBackoff {
		state.backoff = maxBackoff
	}
	state.errorCount = 0
}

// Backoff returns the extra delay currently applied to host.
func (h *HostLimiter) Backoff(host string) time.Duration {
	if !h.Enabled() {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state(host).backoff
}

func (h *HostLimiter) state(host string) *hostState {
	state, ok := h.hosts[host]
	if !ok {
		state = &hostState{}
		h.hosts[host] = state
	}
	return state
}

func (h *HostLimiter) calculateDelay() time.Duration {
	if h.minDelay == h.maxDelay {
		return h.minDelay
	}

	delta := h.maxDelay - h.minDelay
	jitter := time.Duration(rand.Int63n(int64(delta)))
	return h.minDelay + jitter
}
