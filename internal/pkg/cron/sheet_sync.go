package cron

import (
	"context"
	"log/slog"
	"time"
)

// PendingSheetSyncer repairs salary list entries left pending after their
// payroll run was paid.
type PendingSheetSyncer interface {
	SyncPending(ctx context.Context) (int, error)
}

type SheetSyncJobs struct {
	syncer   PendingSheetSyncer
	interval time.Duration
}

func NewSheetSyncJobs(syncer PendingSheetSyncer, interval time.Duration) *SheetSyncJobs {
	return &SheetSyncJobs{syncer: syncer, interval: interval}
}

func (j *SheetSyncJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("sync_pending_salary_list_entries", j.interval, j.SyncPendingEntries)
}

// SyncPendingEntries marks paid every entry whose linked run is paid
func (j *SheetSyncJobs) SyncPendingEntries(ctx context.Context) error {
	synced, err := j.syncer.SyncPending(ctx)
	if synced > 0 {
		slog.Info("Salary list entries repaired", "count", synced)
	}
	return err
}
