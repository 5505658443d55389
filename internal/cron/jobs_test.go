package cron_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/matthewhand/hivepace/internal/cron"
	"github.com/matthewhand/hivepace/internal/cron/crontest"
)

func TestHistoryRetentionJob_Name(t *testing.T) {
	t.Parallel()
	j := &cron.HistoryRetentionJob{Logger: slog.Default()}
	if j.Name() != "history_retention" {
		t.Errorf("name = %q, want %q", j.Name(), "history_retention")
	}
}

func TestHistoryRetentionJob_Schedule(t *testing.T) {
	t.Parallel()
	j := &cron.HistoryRetentionJob{Logger: slog.Default()}
	if j.Schedule() != "0 * * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "0 * * * *")
	}
	j.ScheduleExpr = "*/15 * * * *"
	if j.Schedule() != "*/15 * * * *" {
		t.Errorf("schedule = %q, want override", j.Schedule())
	}
}

func TestHistoryRetentionJob_Run(t *testing.T) {
	t.Parallel()

	store := &crontest.MockPruner{
		PruneFunc: func(_ context.Context, _ time.Time) (int64, error) {
			return 3, nil
		},
	}

	j := &cron.HistoryRetentionJob{
		Store:  store,
		MaxAge: 24 * time.Hour,
		Logger: slog.Default(),
	}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.PruneCalls.Load() != 1 {
		t.Errorf("prune calls = %d, want 1", store.PruneCalls.Load())
	}
	if age := time.Since(store.LastCutoff()); age < 23*time.Hour || age > 25*time.Hour {
		t.Errorf("cutoff age = %v, want ~24h", age)
	}
}

func TestHistoryRetentionJob_ZeroMaxAgeSkipsPrune(t *testing.T) {
	t.Parallel()

	store := &crontest.MockPruner{}
	j := &cron.HistoryRetentionJob{Store: store, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.PruneCalls.Load() != 0 {
		t.Errorf("prune calls = %d, want 0 for zero MaxAge", store.PruneCalls.Load())
	}
}

func TestHistoryRetentionJob_WrapsStoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	store := &crontest.MockPruner{
		PruneFunc: func(context.Context, time.Time) (int64, error) {
			return 0, boom
		},
	}
	j := &cron.HistoryRetentionJob{Store: store, MaxAge: time.Hour, Logger: slog.Default()}

	if err := j.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestJobsRunWithoutLogger(t *testing.T) {
	t.Parallel()

	retention := &cron.HistoryRetentionJob{
		Store: &crontest.MockPruner{
			PruneFunc: func(context.Context, time.Time) (int64, error) { return 5, nil },
		},
		MaxAge: time.Hour,
	}
	if err := retention.Run(context.Background()); err != nil {
		t.Fatalf("retention run without logger: %v", err)
	}

	maintenance := &cron.StoreMaintenanceJob{Store: &crontest.MockCheckpointer{}}
	if err := maintenance.Run(context.Background()); err != nil {
		t.Fatalf("maintenance run without logger: %v", err)
	}
}

func TestStoreMaintenanceJob_NameAndSchedule(t *testing.T) {
	t.Parallel()
	j := &cron.StoreMaintenanceJob{Logger: slog.Default()}
	if j.Name() != "store_maintenance" {
		t.Errorf("name = %q, want %q", j.Name(), "store_maintenance")
	}
	if j.Schedule() != "*/30 * * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "*/30 * * * *")
	}
}

func TestStoreMaintenanceJob_Run(t *testing.T) {
	t.Parallel()
	cp := &crontest.MockCheckpointer{}
	j := &cron.StoreMaintenanceJob{Store: cp, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.CheckpointCalls.Load() != 1 {
		t.Errorf("checkpoint calls = %d, want 1", cp.CheckpointCalls.Load())
	}
}

func TestStoreMaintenanceJob_WrapsError(t *testing.T) {
	t.Parallel()
	boom := errors.New("locked")
	j := &cron.StoreMaintenanceJob{
		Store:  &crontest.MockCheckpointer{CheckpointFunc: func(context.Context) error { return boom }},
		Logger: slog.Default(),
	}

	if err := j.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped checkpoint error", err)
	}
}
