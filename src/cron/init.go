package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const (
	SCHEDULE_CHECK_JOB   = "schedule check"
	DAILY_DIGEST_JOB     = "daily digest"
	SNAPSHOT_CLEANUP_JOB = "snapshot cleanup"

	// A persisted job is considered missed when it has not run for this long.
	MISSED_RUN_AFTER = 24 * time.Hour
	DIGEST_TIMEOUT   = 10 * time.Minute

	DEFAULT_CHECK_TIMEOUT = 15 * time.Minute
)

type Timings struct {
	PollInterval   time.Duration
	CheckTimeout   time.Duration
	DailyCron      string
	CleanupCron    string
	SnapshotMaxAge time.Duration
	Location       *time.Location
}

// Service is everything the jobs need from the schedule pipeline.
type Service interface {
	ScheduleChecker
	DigestBuilder
	SnapshotsCleaner
}

type TasksController struct {
	service   Service
	targets   TargetsLister
	daily     DailySender
	tasksRepo interfaces.TasksRepository
	timings   Timings
	// persisted jobs are caught up at start-up when their run was missed
	persisted []gocron.Job
}

func NewTasksController(service Service, targets TargetsLister, daily DailySender, tasks interfaces.TasksRepository, timings Timings) *TasksController {
	if timings.Location == nil {
		timings.Location = time.Local
	}
	if timings.CheckTimeout <= 0 {
		timings.CheckTimeout = DEFAULT_CHECK_TIMEOUT
	}
	return &TasksController{service: service, targets: targets, daily: daily, tasksRepo: tasks, timings: timings}
}

func (controller *TasksController) persistRun(ctx context.Context) gocron.JobOption {
	return gocron.WithEventListeners(gocron.AfterJobRuns(func(jobID uuid.UUID, jobName string) {
		err := controller.tasksRepo.Add(ctx, entities.PersistedTask{ExecutedAt: controller.service.Now(), Name: jobName})
		if err != nil {
			slog.Error(fmt.Sprintf("failed to add task %s to db: %v", jobName, err), "job_id", jobID.String())
		}
	}))
}

// InitTasks schedules the jobs and blocks until ctx is done.
func (controller *TasksController) InitTasks(ctx context.Context) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(controller.timings.Location))
	if err != nil {
		slog.Error(fmt.Errorf("failed to init cron scheduler: %w", err).Error())
		return
	}

	check := NewScheduleCheckTask(controller.service, controller.timings.CheckTimeout)
	_, err = scheduler.NewJob(gocron.DurationJob(controller.timings.PollInterval), gocron.NewTask(func() { check.Run(ctx) }),
		gocron.WithName(SCHEDULE_CHECK_JOB), gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()))
	if err != nil {
		slog.Error(fmt.Errorf("failed to init schedule check cron: %w", err).Error())
	}

	digest := NewDailyDigestTask(controller.service, controller.targets, controller.daily)
	digestJob, err := scheduler.NewJob(gocron.CronJob(controller.timings.DailyCron, false), gocron.NewTask(func() {
		digestCtx, cancel := context.WithTimeout(ctx, DIGEST_TIMEOUT)
		defer cancel()
		digest.Run(digestCtx)
	}), gocron.WithName(DAILY_DIGEST_JOB), gocron.WithContext(ctx), controller.persistRun(ctx))
	if err != nil {
		slog.Error(fmt.Errorf("failed to init daily digest cron: %w", err).Error())
	} else {
		controller.persisted = append(controller.persisted, digestJob)
	}

	cleanup := NewCleanupTask(controller.service, controller.tasksRepo, controller.timings.SnapshotMaxAge)
	cleanupJob, err := scheduler.NewJob(gocron.CronJob(controller.timings.CleanupCron, false), gocron.NewTask(func() { cleanup.Run(ctx) }),
		gocron.WithName(SNAPSHOT_CLEANUP_JOB), gocron.WithContext(ctx), controller.persistRun(ctx))
	if err != nil {
		slog.Error(fmt.Errorf("failed to init snapshot cleanup cron: %w", err).Error())
	} else {
		controller.persisted = append(controller.persisted, cleanupJob)
	}

	scheduler.Start()
	controller.TasksExec(ctx)
	<-ctx.Done()
	err = scheduler.Shutdown()
	if err != nil {
		slog.Error(fmt.Errorf("failed to shutdown cron scheduler: %w", err).Error())
	}
}

// TasksExec runs the persisted jobs whose last run is missing or too old.
func (controller *TasksController) TasksExec(ctx context.Context) {
	now := controller.service.Now()
	tasks, err := controller.tasksRepo.GetCompleted(ctx, now.Add(-MISSED_RUN_AFTER))
	if err != nil {
		slog.Error(fmt.Sprintf("failed to get tasks in tasks exec: %v", err))
		return
	}
	names := make([]string, 0, len(controller.persisted))
	for _, job := range controller.persisted {
		names = append(names, job.Name())
	}
	missed := MissedJobs(names, tasks)
	for _, job := range controller.persisted {
		if !missed[job.Name()] {
			continue
		}
		slog.Info("running missed job", "job", job.Name())
		if err := job.RunNow(); err != nil {
			slog.Error(fmt.Sprintf("failed to run task %s: %v", job.Name(), err))
		}
	}
}

// MissedJobs marks the names without a recent completed run.
func MissedJobs(names []string, recent []entities.PersistedTask) map[string]bool {
	missed := make(map[string]bool, len(names))
	for _, name := range names {
		missed[name] = true
	}
	for _, task := range recent {
		delete(missed, task.Name)
	}
	return missed
}
