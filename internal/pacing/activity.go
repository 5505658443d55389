package pacing

import (
	"sync"
	"time"
)

// ActivityTracker keeps per-channel recency state for the delay
// calculator: the timestamp of the last observed activity and a sliding
// window of recent event timestamps. Channel entries are created lazily
// on first record; window entries expire lazily by age.
//
// Both inbound-message recording and the scheduler's own sends feed the
// same state, so consecutive segments of a reply pace off each other.
// A single mutex guards the channel map; channels never share entries.
type ActivityTracker struct {
	mu       sync.Mutex
	window   time.Duration
	channels map[string]*channelActivity
}

type channelActivity struct {
	last   time.Time
	events []time.Time
}

// NewActivityTracker creates a tracker whose sliding window spans the
// given duration.
func NewActivityTracker(window time.Duration) *ActivityTracker {
	return &ActivityTracker{
		window:   window,
		channels: make(map[string]*channelActivity),
	}
}

// RecordIncoming registers a human message on the channel at ts.
func (t *ActivityTracker) RecordIncoming(channelID string, ts time.Time) {
	t.record(channelID, ts)
}

// RecordSend registers one of the engine's own deliveries on the channel
// at ts. Sends count toward channel activity exactly like inbound
// messages.
func (t *ActivityTracker) RecordSend(channelID string, ts time.Time) {
	t.record(channelID, ts)
}

func (t *ActivityTracker) record(channelID string, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelID]
	if !ok {
		ch = &channelActivity{}
		t.channels[channelID] = ch
	}

	if ts.After(ch.last) {
		ch.last = ts
	}
	ch.events = append(ch.events, ts)
	ch.evict(ts.Add(-t.window))
}

// TimeSinceLast returns the elapsed time between the channel's last
// recorded activity and now. The second return is false when the channel
// has never been seen. A negative elapsed (clock skew, out-of-order
// timestamps) is reported as zero.
func (t *ActivityTracker) TimeSinceLast(channelID string, now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelID]
	if !ok || ch.last.IsZero() {
		return 0, false
	}

	since := now.Sub(ch.last)
	if since < 0 {
		since = 0
	}
	return since, true
}

// RecentCount returns the number of recorded events within the sliding
// window ending at now. Expired entries are pruned as a side effect.
func (t *ActivityTracker) RecentCount(channelID string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelID]
	if !ok {
		return 0
	}

	ch.evict(now.Add(-t.window))
	return len(ch.events)
}

// Channels returns the number of channels with recorded state.
func (t *ActivityTracker) Channels() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.channels)
}

// evict removes events older than cutoff. Events are appended in
// chronological order, so a prefix scan suffices.
func (c *channelActivity) evict(cutoff time.Time) {
	i := 0
	for i < len(c.events) && c.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		c.events = c.events[i:]
	}
}
