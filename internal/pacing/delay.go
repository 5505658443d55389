package pacing

import (
	"math"
	"time"
)

// Calculator derives humanized delivery delays from channel recency,
// processing time, and segment size. It is a pure value; all state
// lives in the inputs.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a Calculator for the given config. The config
// is assumed to be validated.
func NewCalculator(cfg Config) Calculator {
	return Calculator{cfg: cfg}
}

// DelayInput carries the per-segment inputs to Compute.
type DelayInput struct {
	// SinceLast is the elapsed time since the channel's last recorded
	// activity. Ignored when HasHistory is false.
	SinceLast time.Duration

	// HasHistory is false when the channel has never seen a message.
	HasHistory bool

	// Processing is the time already spent producing the reply; it is
	// credited against the pause so slow generation does not stack with
	// a deliberate delay.
	Processing time.Duration

	// SegmentChars is the segment length in characters.
	SegmentChars int

	// RecentActivity is the count of events in the channel's sliding
	// activity window.
	RecentActivity int
}

// Compute returns the pause before delivering one segment. The result
// is never negative.
//
// For a channel with no history the pause is simply the minimum delay
// minus time already spent processing. Otherwise an exponential decay
// of MaxDelay over the time since last activity gives the base: replies
// that land right after the user spoke get a deliberate pause, while a
// long-quiet channel is answered near-immediately. The base is clamped
// to [MinDelay, MaxDelay] before the activity and size multipliers
// apply; the final product is capped at MaxDelay so multiplier stacking
// can never exceed the configured ceiling.
func (c Calculator) Compute(in DelayInput) time.Duration {
	if !in.HasHistory {
		d := c.cfg.MinDelay - in.Processing
		if d < 0 {
			d = 0
		}
		return d
	}

	base := c.decayedBase(in.SinceLast)
	base -= in.Processing
	if base < c.cfg.MinDelay {
		base = c.cfg.MinDelay
	}

	activity := math.Pow(c.cfg.ActivityGrowthBase, float64(in.RecentActivity))
	size := float64(in.SegmentChars) / float64(c.cfg.SizeReferenceChars)
	if size < 1 {
		size = 1
	}

	// Cap on the float side: the multiplier product overflows int64 for
	// large activity counts, and a converted overflow would read as
	// negative.
	product := float64(base) * activity * size
	if product >= float64(c.cfg.MaxDelay) {
		return c.cfg.MaxDelay
	}
	final := time.Duration(product)
	if final < 0 {
		final = 0
	}
	return final
}

// ReadingDelay returns the simulated typing time for a segment of the
// given character count: a fixed base plus a per-character cost, capped
// at MaxReading. Used as a floor for segments after the first, where no
// fresh user message sets the pace.
func (c Calculator) ReadingDelay(chars int) time.Duration {
	d := c.cfg.BaseDelay + time.Duration(chars)*c.cfg.PerChar
	if d > c.cfg.MaxReading {
		d = c.cfg.MaxReading
	}
	if d < 0 {
		d = 0
	}
	return d
}

// decayedBase is the pre-multiplier delay: exp(DecayRate * seconds) of
// MaxDelay, clamped to [MinDelay, MaxDelay]. With a negative decay rate
// the result always lands inside that interval.
func (c Calculator) decayedBase(sinceLast time.Duration) time.Duration {
	raw := math.Exp(c.cfg.DecayRate*sinceLast.Seconds()) * float64(c.cfg.MaxDelay)
	base := time.Duration(raw)
	if base < c.cfg.MinDelay {
		base = c.cfg.MinDelay
	}
	if base > c.cfg.MaxDelay {
		base = c.cfg.MaxDelay
	}
	return base
}
