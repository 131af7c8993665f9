package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/config"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, config.STORAGE_SQLITE, ":memory:")
	if err != nil {
		t.Fatalf(`Open(:memory:) returned error %v`, err)
	}
	t.Cleanup(func() { db.Close() })
	if err := DatabaseInit(ctx, db, ""); err != nil {
		t.Fatalf(`DatabaseInit() returned error %v`, err)
	}
	return db
}

func TestSubscribersCreateDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscribersRepository(openTestDB(t))
	subscriber := entities.NewSubscriber(42, entities.NewGroupTarget("ИТ205"))

	if err := repo.Create(ctx, subscriber); err != nil {
		t.Fatalf(`Create(42) returned error %v`, err)
	}
	if err := repo.Create(ctx, subscriber); !errors.Is(err, interfaces.ErrAlreadyExists) {
		t.Errorf(`Create(42) twice = %v, want ErrAlreadyExists`, err)
	}
	stored, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf(`Get(42) returned error %v`, err)
	}
	if stored.Target != subscriber.Target || !stored.NotificationsEnabled || !stored.DailyEnabled {
		t.Errorf(`Get(42) = %+v, want %+v`, stored, subscriber)
	}

	if err := repo.Delete(ctx, 42); err != nil {
		t.Fatalf(`Delete(42) returned error %v`, err)
	}
	if _, err := repo.Get(ctx, 42); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf(`Get(42) after delete = %v, want ErrNotFound`, err)
	}
	if err := repo.Delete(ctx, 42); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf(`Delete(42) twice = %v, want ErrNotFound`, err)
	}
	if err := repo.Update(ctx, subscriber); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf(`Update(42) after delete = %v, want ErrNotFound`, err)
	}
}

func TestSubscribersModifyAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscribersRepository(openTestDB(t))
	group := entities.NewGroupTarget("ИТ205")
	mentor := entities.NewMentorTarget("Иванов Иван Иванович")
	for _, subscriber := range []*entities.Subscriber{
		entities.NewSubscriber(1, group),
		entities.NewSubscriber(2, group, entities.WithChatType("group")),
		entities.NewSubscriber(3, mentor),
	} {
		if err := repo.Create(ctx, subscriber); err != nil {
			t.Fatalf(`Create(%d) returned error %v`, subscriber.ChatId, err)
		}
	}

	modified, err := repo.Modify(ctx, 2, func(sub *entities.Subscriber) error {
		sub.NotificationsEnabled = false
		return nil
	})
	if err != nil || modified.NotificationsEnabled {
		t.Errorf(`Modify(2, notifications off) = (%+v, %v), want notifications off`, modified, err)
	}
	if _, err := repo.Modify(ctx, 9, func(*entities.Subscriber) error { return nil }); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf(`Modify(9) = %v, want ErrNotFound`, err)
	}

	byGroup, err := repo.ListByTarget(ctx, group)
	if err != nil || len(byGroup) != 2 {
		t.Fatalf(`ListByTarget(%s) = (%d, %v), want 2 subscribers`, group, len(byGroup), err)
	}
	if byGroup[1].ChatType != "group" || byGroup[1].NotificationsEnabled {
		t.Errorf(`ListByTarget(%s)[1] = %+v, want group chat with notifications off`, group, byGroup[1])
	}

	stats, err := repo.Stats(ctx)
	if err != nil || len(stats) != 2 {
		t.Fatalf(`Stats() = (%v, %v), want 2 targets`, stats, err)
	}
	for _, stat := range stats {
		want := 1
		if stat.Target == group {
			want = 2
		}
		if stat.Subscribers != want {
			t.Errorf(`Stats()[%s] = %d, want %d`, stat.Target, stat.Subscribers, want)
		}
	}
}

func TestSnapshotsSaveReplaceAndCleanup(t *testing.T) {
	ctx := context.Background()
	location := time.UTC
	repo := NewSnapshotsRepository(openTestDB(t), location)
	target := entities.NewGroupTarget("ИТ205")
	date := time.Date(2025, time.October, 13, 0, 0, 0, 0, location)
	lesson := entities.LessonRecord{GroupId: "ИТ205", Weekday: time.Monday, TimeSlot: "1", Subject: "Математика", Room: "301", Date: date}

	if _, err := repo.Get(ctx, target); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf(`Get(%s) on empty store = %v, want ErrNotFound`, target, err)
	}

	old := entities.NewScheduleSnapshot(target, date, []entities.LessonRecord{lesson})
	if err := repo.Save(ctx, old); err != nil {
		t.Fatalf(`Save(old) returned error %v`, err)
	}
	lesson.Room = "405"
	fresh := entities.NewScheduleSnapshot(target, date.Add(time.Hour), []entities.LessonRecord{lesson})
	if err := repo.Save(ctx, fresh); err != nil {
		t.Fatalf(`Save(fresh) returned error %v`, err)
	}

	stored, err := repo.Get(ctx, target)
	if err != nil {
		t.Fatalf(`Get(%s) returned error %v`, target, err)
	}
	if stored.Hash() != fresh.Hash() {
		t.Errorf(`Get(%s).Hash() = %s, want %s`, target, stored.Hash(), fresh.Hash())
	}
	if !stored.Lessons[0].Date.Equal(date) {
		t.Errorf(`Get(%s).Lessons[0].Date = %s, want %s`, target, stored.Lessons[0].Date, date)
	}

	deleted, err := repo.DeleteOlderThan(ctx, date.Add(2*time.Hour))
	if err != nil || deleted != 1 {
		t.Errorf(`DeleteOlderThan() = (%d, %v), want 1`, deleted, err)
	}
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	repo := NewBlacklistRepository(openTestDB(t))
	if err := repo.Block(ctx, 7); err != nil {
		t.Fatalf(`Block(7) returned error %v`, err)
	}
	if err := repo.Block(ctx, 7); err != nil {
		t.Errorf(`Block(7) twice returned error %v`, err)
	}
	if blocked, err := repo.IsBlocked(ctx, 7); err != nil || !blocked {
		t.Errorf(`IsBlocked(7) = (%t, %v), want true`, blocked, err)
	}
	if err := repo.Unblock(ctx, 7); err != nil {
		t.Errorf(`Unblock(7) returned error %v`, err)
	}
	if err := repo.Unblock(ctx, 7); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf(`Unblock(7) twice = %v, want ErrNotFound`, err)
	}
	if blocked, _ := repo.IsBlocked(ctx, 7); blocked {
		t.Errorf(`IsBlocked(7) after unblock = true, want false`)
	}
}

func TestTasks(t *testing.T) {
	ctx := context.Background()
	repo := NewTasksRepository(openTestDB(t))
	now := time.Now()
	if err := repo.Add(ctx, entities.PersistedTask{ExecutedAt: now.Add(-48 * time.Hour), Name: "daily digest"}); err != nil {
		t.Fatalf(`Add(old) returned error %v`, err)
	}
	if err := repo.Add(ctx, entities.PersistedTask{ExecutedAt: now, Name: "daily digest"}); err != nil {
		t.Fatalf(`Add(now) returned error %v`, err)
	}

	tasks, err := repo.GetCompleted(ctx, now.Add(-time.Hour))
	if err != nil || len(tasks) != 1 {
		t.Errorf(`GetCompleted(-1h) = (%v, %v), want 1 task`, tasks, err)
	}
	if err := repo.DeleteBefore(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatalf(`DeleteBefore(-1h) returned error %v`, err)
	}
	tasks, _ = repo.GetCompleted(ctx, time.Time{})
	if len(tasks) != 1 {
		t.Errorf(`len(GetCompleted(zero)) after cleanup = %d, want 1`, len(tasks))
	}
}
