package pacing

import (
	"context"
	"log/slog"
	"time"
)

// TypingFunc signals a platform-native "composing" indicator once.
// Implementations are injected by the platform-integration layer.
type TypingFunc func(ctx context.Context) error

// StartTyping invokes fn immediately, then again every cadence until
// total elapses, ctx is cancelled, or the returned stop function is
// called. No invocation happens after cancellation or after total has
// elapsed. Failures from fn are logged and swallowed; they never abort
// the pending delivery.
//
// The stop function blocks until the loop has fully exited, so a caller
// that stops the loop before sending is guaranteed no indicator races
// the message. When total is not positive the loop is a no-op.
func StartTyping(ctx context.Context, clock Clock, total, cadence time.Duration, fn TypingFunc, logger *slog.Logger) (stop func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if fn == nil || total <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		signal := func() {
			if err := fn(ctx); err != nil {
				logger.Debug("typing indicator failed", "error", err)
			}
		}

		signal()
		if cadence <= 0 {
			return
		}

		deadline := clock.After(total)
		ticker := clock.NewTicker(cadence)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-deadline:
				return
			case <-ticker.C():
				signal()
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
