// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matthewhand/hivepace/internal/cron"
)

// Compile-time interface checks.
var (
	_ cron.TrafficPruner = (*MockPruner)(nil)
	_ cron.Checkpointer  = (*MockCheckpointer)(nil)
)

// MockPruner is a test double for cron.TrafficPruner.
type MockPruner struct {
	PruneFunc  func(ctx context.Context, cutoff time.Time) (int64, error)
	PruneCalls atomic.Int32

	mu         sync.Mutex
	lastCutoff time.Time
}

// PruneBefore implements cron.TrafficPruner.
func (m *MockPruner) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.PruneCalls.Add(1)
	m.mu.Lock()
	m.lastCutoff = cutoff
	m.mu.Unlock()
	if m.PruneFunc != nil {
		return m.PruneFunc(ctx, cutoff)
	}
	return 0, nil
}

// LastCutoff returns the cutoff passed to the most recent PruneBefore call.
func (m *MockPruner) LastCutoff() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCutoff
}

// MockCheckpointer is a test double for cron.Checkpointer.
type MockCheckpointer struct {
	CheckpointFunc  func(ctx context.Context) error
	CheckpointCalls atomic.Int32
}

// Checkpoint implements cron.Checkpointer.
func (m *MockCheckpointer) Checkpoint(ctx context.Context) error {
	m.CheckpointCalls.Add(1)
	if m.CheckpointFunc != nil {
		return m.CheckpointFunc(ctx)
	}
	return nil
}
