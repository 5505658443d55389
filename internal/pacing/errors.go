package pacing

import "errors"

// Sentinel errors for the delivery engine.
var (
	// ErrInvalidConfig indicates a structurally invalid Config. It is
	// returned at construction time, never per delivery.
	ErrInvalidConfig = errors.New("pacing: invalid config")

	// ErrCancelled indicates a delivery was cancelled before all of its
	// segments went out. It is an expected terminal state, not a failure.
	ErrCancelled = errors.New("pacing: delivery cancelled")

	// ErrQueueFull indicates the per-channel delivery queue is at
	// capacity and the new delivery was rejected.
	ErrQueueFull = errors.New("pacing: channel queue full")

	// ErrClosed indicates the scheduler has been shut down.
	ErrClosed = errors.New("pacing: scheduler closed")
)
