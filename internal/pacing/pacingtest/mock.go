// Package pacingtest provides test doubles for the pacing package: a
// controllable clock and a recorder for send and typing callbacks.
package pacingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matthewhand/hivepace/internal/pacing"
)

// FakeClock implements pacing.Clock with manually driven time. Advance
// moves the clock forward and fires any timers or tickers that come due,
// in chronological order.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
}

type waiter struct {
	at     time.Time
	period time.Duration // zero for one-shot timers
	ch     chan time.Time
}

// NewFakeClock returns a FakeClock pinned at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that fires once the clock advances past d.
// Non-positive durations fire immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, &waiter{at: c.now.Add(d), ch: ch})
	return ch
}

// NewTicker returns a ticker driven by Advance.
func (c *FakeClock) NewTicker(d time.Duration) pacing.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &waiter{at: c.now.Add(d), period: d, ch: make(chan time.Time, 1)}
	c.waiters = append(c.waiters, w)
	return &fakeTicker{clock: c, w: w}
}

// Advance moves the clock forward by d, delivering every timer and
// ticker tick due within the span in the order they come due. Ticks are
// sent without blocking; a tick nobody has drained yet is dropped, which
// matches time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.now.Add(d)
	for {
		next := c.nextDueLocked(target)
		if next == nil {
			break
		}
		c.now = next.at
		select {
		case next.ch <- c.now:
		default:
		}
		if next.period > 0 {
			next.at = next.at.Add(next.period)
		} else {
			c.removeLocked(next)
		}
	}
	c.now = target
}

func (c *FakeClock) nextDueLocked(target time.Time) *waiter {
	sort.SliceStable(c.waiters, func(i, j int) bool {
		return c.waiters[i].at.Before(c.waiters[j].at)
	})
	for _, w := range c.waiters {
		if !w.at.After(target) {
			return w
		}
	}
	return nil
}

func (c *FakeClock) removeLocked(target *waiter) {
	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// Waiters returns the number of pending timers and tickers.
func (c *FakeClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// BlockUntil waits for at least n pending waiters, letting a test
// synchronize with goroutines that are about to sleep on the clock.
// Panics after five seconds of real time to keep a broken test from
// hanging.
func (c *FakeClock) BlockUntil(n int) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		if c.Waiters() >= n {
			return
		}
		if time.Now().After(deadline) {
			panic("pacingtest: BlockUntil timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeTicker struct {
	clock *FakeClock
	w     *waiter
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.w.ch
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.clock.removeLocked(t.w)
}

// SentSegment is one recorded send with the fake time it happened at.
type SentSegment struct {
	Segment pacing.Segment
	At      time.Time
}

// DeliveryRecorder captures send and typing callbacks. The zero value
// never fails; set FailAtIndex and Err to make the send for a specific
// segment index return an error.
type DeliveryRecorder struct {
	// FailAtIndex is the segment index whose send fails with Err.
	// Negative means never fail.
	FailAtIndex int
	Err         error

	clock *FakeClock

	mu      sync.Mutex
	sent    []SentSegment
	typing  []time.Time
}

// NewDeliveryRecorder returns a recorder that stamps events with the
// given clock. A nil clock records zero times.
func NewDeliveryRecorder(clock *FakeClock) *DeliveryRecorder {
	return &DeliveryRecorder{FailAtIndex: -1, clock: clock}
}

func (r *DeliveryRecorder) at() time.Time {
	if r.clock == nil {
		return time.Time{}
	}
	return r.clock.Now()
}

// Send records the segment, failing if its index matches FailAtIndex.
func (r *DeliveryRecorder) Send(_ context.Context, seg pacing.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil && seg.Index == r.FailAtIndex {
		return r.Err
	}
	r.sent = append(r.sent, SentSegment{Segment: seg, At: r.at()})
	return nil
}

// Typing records one typing signal.
func (r *DeliveryRecorder) Typing(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing = append(r.typing, r.at())
	return nil
}

// Sent returns a copy of the recorded sends in order.
func (r *DeliveryRecorder) Sent() []SentSegment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentSegment, len(r.sent))
	copy(out, r.sent)
	return out
}

// Texts returns just the sent segment texts in order.
func (r *DeliveryRecorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, s.Segment.Text)
	}
	return out
}

// TypingCount returns how many typing signals were recorded.
func (r *DeliveryRecorder) TypingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.typing)
}

// TypingTimes returns a copy of the recorded typing signal times.
func (r *DeliveryRecorder) TypingTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.typing))
	copy(out, r.typing)
	return out
}
