package cron

import (
	"context"
	"testing"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/dispatcher"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/memory"
)

var cronNow = time.Date(2025, time.October, 13, 19, 0, 0, 0, time.UTC)

type fakeDigest struct {
	published map[string]bool
	dates     []time.Time
	deleted   time.Time
}

func (digest *fakeDigest) Now() time.Time {
	return cronNow
}

func (digest *fakeDigest) DailyDigest(ctx context.Context, target entities.Target, date time.Time) (string, bool, error) {
	digest.dates = append(digest.dates, date)
	return "digest " + target.Name, digest.published[target.Name], nil
}

func (digest *fakeDigest) DeleteOldSnapshots(ctx context.Context, before time.Time) (int64, error) {
	digest.deleted = before
	return 1, nil
}

type recordingDaily map[string]string

func (daily recordingDaily) DispatchDaily(ctx context.Context, target entities.Target, text string) (dispatcher.Result, error) {
	daily[target.Name] = text
	return dispatcher.Result{Sent: []int64{1}}, nil
}

func TestDailyDigestSendsPublishedDays(t *testing.T) {
	ctx := context.Background()
	subscribers := memory.NewSubscribersRepository()
	subscribers.Create(ctx, entities.NewSubscriber(1, entities.NewGroupTarget("ИТ205")))
	subscribers.Create(ctx, entities.NewSubscriber(2, entities.NewGroupTarget("ПО101")))

	digest := &fakeDigest{published: map[string]bool{"ИТ205": true}}
	daily := recordingDaily{}
	NewDailyDigestTask(digest, subscribers, daily).Run(ctx)

	if len(daily) != 1 || daily["ИТ205"] != "digest ИТ205" {
		t.Errorf(`DailyDigestTask.Run() sent %v, want only the published ИТ205 digest`, daily)
	}
	tomorrow := time.Date(2025, time.October, 14, 0, 0, 0, 0, time.UTC)
	for _, date := range digest.dates {
		if !date.Equal(tomorrow) {
			t.Errorf(`DailyDigest() asked for %s, want %s`, date, tomorrow)
		}
	}
}

func TestCleanupTask(t *testing.T) {
	ctx := context.Background()
	tasks := memory.NewTasksRepository()
	tasks.Add(ctx, entities.PersistedTask{ExecutedAt: cronNow.AddDate(0, 0, -30), Name: DAILY_DIGEST_JOB})
	tasks.Add(ctx, entities.PersistedTask{ExecutedAt: cronNow.Add(-time.Hour), Name: DAILY_DIGEST_JOB})

	digest := &fakeDigest{}
	NewCleanupTask(digest, tasks, 14*24*time.Hour).Run(ctx)

	if want := cronNow.AddDate(0, 0, -14); !digest.deleted.Equal(want) {
		t.Errorf(`CleanupTask.Run() deleted snapshots before %s, want %s`, digest.deleted, want)
	}
	left, _ := tasks.GetCompleted(ctx, time.Time{})
	if len(left) != 1 {
		t.Errorf(`task runs after cleanup = %d, want 1`, len(left))
	}
}

func TestMissedJobs(t *testing.T) {
	recent := []entities.PersistedTask{{ExecutedAt: cronNow, Name: SNAPSHOT_CLEANUP_JOB}}
	missed := MissedJobs([]string{DAILY_DIGEST_JOB, SNAPSHOT_CLEANUP_JOB}, recent)
	if !missed[DAILY_DIGEST_JOB] || missed[SNAPSHOT_CLEANUP_JOB] {
		t.Errorf(`MissedJobs() = %v, want only %q`, missed, DAILY_DIGEST_JOB)
	}
}
