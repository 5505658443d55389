package pacing

import (
	"errors"
	"fmt"
	"time"
)

// Config controls how replies are delayed, segmented, and typed out.
// All durations are engine-internal floors/ceilings; the zero value of
// any field is replaced with its default by the constructor.
type Config struct {
	// MinDelay is the minimum pause before any reply segment is sent.
	MinDelay time.Duration `yaml:"min_delay"`

	// MaxDelay is the ceiling for any computed pause, including after
	// activity and size multipliers are applied.
	MaxDelay time.Duration `yaml:"max_delay"`

	// DecayRate shapes the exponential decay of reply urgency as time
	// since the channel's last activity grows. Must be negative; units
	// are 1/second.
	DecayRate float64 `yaml:"decay_rate"`

	// BaseDelay is the fixed component of the simulated typing time for
	// segments after the first.
	BaseDelay time.Duration `yaml:"base_delay"`

	// PerChar is the per-character component of the simulated typing time.
	PerChar time.Duration `yaml:"per_char"`

	// MaxReading caps the simulated typing time regardless of segment size.
	MaxReading time.Duration `yaml:"max_reading"`

	// InterPartDelay is always added between consecutive segments of a
	// multi-part reply, on top of the adaptive delay.
	InterPartDelay time.Duration `yaml:"inter_part_delay"`

	// TypingCadence is the interval between typing-indicator signals
	// while a delay is pending.
	TypingCadence time.Duration `yaml:"typing_cadence"`

	// MaxLinesPerResponse caps the number of segments per reply.
	// Segments beyond the cap are discarded.
	MaxLinesPerResponse int `yaml:"max_lines_per_response"`

	// ActivityWindow bounds how far back incoming-message timestamps
	// count toward a channel's recent activity.
	ActivityWindow time.Duration `yaml:"activity_window"`

	// ActivityGrowthBase is raised to the power of the recent activity
	// count; busier channels get progressively longer pacing. Must be
	// at least 1.
	ActivityGrowthBase float64 `yaml:"activity_growth_base"`

	// SizeReferenceChars is the segment length at which the size
	// multiplier starts exceeding 1.
	SizeReferenceChars int `yaml:"size_reference_chars"`

	// QueueSize caps the number of deliveries waiting behind the active
	// one on a single channel.
	QueueSize int `yaml:"queue_size"`
}

// DefaultConfig returns a Config with documented defaults.
func DefaultConfig() Config {
	return Config{
		MinDelay:            time.Second,
		MaxDelay:            10 * time.Second,
		DecayRate:           -0.5,
		BaseDelay:           300 * time.Millisecond,
		PerChar:             15 * time.Millisecond,
		MaxReading:          5 * time.Second,
		InterPartDelay:      500 * time.Millisecond,
		TypingCadence:       3 * time.Second,
		MaxLinesPerResponse: 10,
		ActivityWindow:      time.Minute,
		ActivityGrowthBase:  1.15,
		SizeReferenceChars:  120,
		QueueSize:           8,
	}
}

// defaults fills zero-valued fields with defaults. Explicitly invalid
// values (e.g. a positive decay rate) are left for Validate to reject.
func (c *Config) defaults() {
	d := DefaultConfig()
	if c.MinDelay == 0 {
		c.MinDelay = d.MinDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.DecayRate == 0 {
		c.DecayRate = d.DecayRate
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.PerChar == 0 {
		c.PerChar = d.PerChar
	}
	if c.MaxReading == 0 {
		c.MaxReading = d.MaxReading
	}
	if c.InterPartDelay == 0 {
		c.InterPartDelay = d.InterPartDelay
	}
	if c.TypingCadence == 0 {
		c.TypingCadence = d.TypingCadence
	}
	if c.MaxLinesPerResponse == 0 {
		c.MaxLinesPerResponse = d.MaxLinesPerResponse
	}
	if c.ActivityWindow == 0 {
		c.ActivityWindow = d.ActivityWindow
	}
	if c.ActivityGrowthBase == 0 {
		c.ActivityGrowthBase = d.ActivityGrowthBase
	}
	if c.SizeReferenceChars == 0 {
		c.SizeReferenceChars = d.SizeReferenceChars
	}
	if c.QueueSize == 0 {
		c.QueueSize = d.QueueSize
	}
}

// Normalized returns a copy with zero-valued fields filled from
// DefaultConfig.
func (c Config) Normalized() Config {
	c.defaults()
	return c
}

// Validate checks the structural validity of the config. All problems
// are reported at once via errors.Join; any error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error

	if c.MinDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: min_delay must not be negative", ErrInvalidConfig))
	}
	if c.MaxDelay <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_delay must be positive", ErrInvalidConfig))
	}
	if c.MinDelay > c.MaxDelay {
		errs = append(errs, fmt.Errorf("%w: min_delay exceeds max_delay", ErrInvalidConfig))
	}
	if c.DecayRate >= 0 {
		errs = append(errs, fmt.Errorf("%w: decay_rate must be negative", ErrInvalidConfig))
	}
	if c.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: base_delay must not be negative", ErrInvalidConfig))
	}
	if c.PerChar < 0 {
		errs = append(errs, fmt.Errorf("%w: per_char must not be negative", ErrInvalidConfig))
	}
	if c.MaxReading < 0 {
		errs = append(errs, fmt.Errorf("%w: max_reading must not be negative", ErrInvalidConfig))
	}
	if c.InterPartDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: inter_part_delay must not be negative", ErrInvalidConfig))
	}
	if c.TypingCadence <= 0 {
		errs = append(errs, fmt.Errorf("%w: typing_cadence must be positive", ErrInvalidConfig))
	}
	if c.MaxLinesPerResponse < 0 {
		errs = append(errs, fmt.Errorf("%w: max_lines_per_response must not be negative", ErrInvalidConfig))
	}
	if c.ActivityWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: activity_window must be positive", ErrInvalidConfig))
	}
	if c.ActivityGrowthBase < 1 {
		errs = append(errs, fmt.Errorf("%w: activity_growth_base must be at least 1", ErrInvalidConfig))
	}
	if c.SizeReferenceChars <= 0 {
		errs = append(errs, fmt.Errorf("%w: size_reference_chars must be positive", ErrInvalidConfig))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
