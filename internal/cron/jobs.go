package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TrafficPruner is the subset of the history store needed by the
// retention job. Defined here to avoid a circular dependency on the
// history package.
type TrafficPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryRetentionJob deletes conversation traffic older than MaxAge.
type HistoryRetentionJob struct {
	Store        TrafficPruner
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

var _ Job = (*HistoryRetentionJob)(nil)

// Name implements Job.
func (j *HistoryRetentionJob) Name() string {
	return "history_retention"
}

// Schedule implements Job.
func (j *HistoryRetentionJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run prunes traffic recorded before now minus MaxAge. A zero MaxAge
// disables pruning so a misconfigured job can never empty the store.
func (j *HistoryRetentionJob) Run(ctx context.Context) error {
	if j.MaxAge <= 0 {
		return nil
	}

	pruned, err := j.Store.PruneBefore(ctx, time.Now().Add(-j.MaxAge))
	if err != nil {
		return fmt.Errorf("cron: history retention: %w", err)
	}
	if pruned > 0 {
		j.logger().Info("cron: pruned old conversation traffic", "rows", pruned)
	}
	return nil
}

func (j *HistoryRetentionJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Checkpointer is the subset of the history store needed by the
// maintenance job.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// StoreMaintenanceJob checkpoints the history database's write-ahead log
// so it does not grow unbounded between restarts.
type StoreMaintenanceJob struct {
	Store        Checkpointer
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/30 * * * *"
}

var _ Job = (*StoreMaintenanceJob)(nil)

// Name implements Job.
func (j *StoreMaintenanceJob) Name() string {
	return "store_maintenance"
}

// Schedule implements Job.
func (j *StoreMaintenanceJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/30 * * * *"
}

// Run checkpoints the store.
func (j *StoreMaintenanceJob) Run(ctx context.Context) error {
	if err := j.Store.Checkpoint(ctx); err != nil {
		return fmt.Errorf("cron: store maintenance: %w", err)
	}
	j.logger().Debug("cron: store checkpoint complete")
	return nil
}

func (j *StoreMaintenanceJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
