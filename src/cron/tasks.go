package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/dispatcher"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	datetime "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/date_time"
)

type Task interface {
	Run(context.Context)
}

// runUntilDone runs job in the background and gives up waiting once ctx is done.
func runUntilDone(ctx context.Context, name string, job func()) {
	done := make(chan struct{}, 1)
	go func() {
		defer func() { done <- struct{}{} }()
		job()
	}()
	select {
	case <-ctx.Done():
		slog.Error(fmt.Errorf("%s task stopped on deadline: %w", name, ctx.Err()).Error())
	case <-done:
	}
}

type ScheduleChecker interface {
	CheckAll(ctx context.Context, force bool) (schedule.CheckReport, error)
}

var _ Task = (*ScheduleCheckTask)(nil)

type ScheduleCheckTask struct {
	checker ScheduleChecker
	timeout time.Duration
}

func NewScheduleCheckTask(checker ScheduleChecker, timeout time.Duration) *ScheduleCheckTask {
	return &ScheduleCheckTask{checker: checker, timeout: timeout}
}

func (task *ScheduleCheckTask) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, task.timeout)
	defer cancel()
	runUntilDone(ctx, SCHEDULE_CHECK_JOB, func() {
		if _, err := task.checker.CheckAll(ctx, false); err != nil {
			slog.Error(fmt.Errorf("failed to check schedules: %w", err).Error())
		}
	})
}

type DigestBuilder interface {
	Now() time.Time
	DailyDigest(ctx context.Context, target entities.Target, date time.Time) (string, bool, error)
}

type TargetsLister interface {
	Stats(ctx context.Context) ([]entities.TargetStats, error)
}

type DailySender interface {
	DispatchDaily(ctx context.Context, target entities.Target, text string) (dispatcher.Result, error)
}

var _ Task = (*DailyDigestTask)(nil)

// DailyDigestTask sends tomorrow's lessons of every subscribed target.
type DailyDigestTask struct {
	digest  DigestBuilder
	targets TargetsLister
	sender  DailySender
}

func NewDailyDigestTask(digest DigestBuilder, targets TargetsLister, sender DailySender) *DailyDigestTask {
	return &DailyDigestTask{digest: digest, targets: targets, sender: sender}
}

func (task *DailyDigestTask) Run(ctx context.Context) {
	runUntilDone(ctx, DAILY_DIGEST_JOB, func() {
		tomorrow := datetime.StartOfDay(task.digest.Now()).AddDate(0, 0, 1)
		stats, err := task.targets.Stats(ctx)
		if err != nil {
			slog.Error(fmt.Errorf("failed to list targets for daily digest: %w", err).Error())
			return
		}
		sent, failed := 0, 0
		for _, stat := range stats {
			text, published, err := task.digest.DailyDigest(ctx, stat.Target, tomorrow)
			if err != nil {
				slog.Error("failed to build daily digest", "target", stat.Target.String(), "err", err)
				continue
			}
			if !published {
				slog.Debug("tomorrow is not published yet", "target", stat.Target.String())
				continue
			}
			result, err := task.sender.DispatchDaily(ctx, stat.Target, text)
			if err != nil {
				slog.Error("failed to send daily digest", "target", stat.Target.String(), "err", err)
				continue
			}
			sent += len(result.Sent)
			failed += len(result.Failed)
		}
		slog.Info("daily digest finished", "targets", len(stats), "sent", sent, "failed", failed)
	})
}

type SnapshotsCleaner interface {
	Now() time.Time
	DeleteOldSnapshots(ctx context.Context, before time.Time) (int64, error)
}

var _ Task = (*CleanupTask)(nil)

// CleanupTask drops snapshots of targets nobody polls anymore and old job runs.
type CleanupTask struct {
	snapshots SnapshotsCleaner
	tasks     interfaces.TasksRepository
	maxAge    time.Duration
}

func NewCleanupTask(snapshots SnapshotsCleaner, tasks interfaces.TasksRepository, maxAge time.Duration) *CleanupTask {
	return &CleanupTask{snapshots: snapshots, tasks: tasks, maxAge: maxAge}
}

func (task *CleanupTask) Run(ctx context.Context) {
	slog.Info("started snapshot cleanup cron")
	runUntilDone(ctx, SNAPSHOT_CLEANUP_JOB, func() {
		before := task.snapshots.Now().Add(-task.maxAge)
		deleted, err := task.snapshots.DeleteOldSnapshots(ctx, before)
		if err != nil {
			slog.Error(fmt.Errorf("failed to delete old snapshots in cleanup task: %w", err).Error())
		} else {
			slog.Info("deleted old snapshots", "count", deleted)
		}
		if err := task.tasks.DeleteBefore(ctx, before); err != nil {
			slog.Error(fmt.Errorf("failed to delete old task runs in cleanup task: %w", err).Error())
		}
	})
}
