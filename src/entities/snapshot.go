package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"
)

type ScheduleSnapshot struct {
	Target    Target
	FetchedAt time.Time
	Lessons   []LessonRecord
}

func NewScheduleSnapshot(target Target, fetchedAt time.Time, lessons []LessonRecord) *ScheduleSnapshot {
	sorted := slices.Clone(lessons)
	slices.SortStableFunc(sorted, func(a, b LessonRecord) int { return CompareLessons(&a, &b) })
	return &ScheduleSnapshot{Target: target, FetchedAt: fetchedAt, Lessons: sorted}
}

// Hash is the hex SHA-256 of the normalized lessons in canonical order, so it does not depend on input order.
func (snapshot *ScheduleSnapshot) Hash() string {
	rows := make([]string, 0, len(snapshot.Lessons))
	for i := range snapshot.Lessons {
		rows = append(rows, snapshot.Lessons[i].canonical())
	}
	slices.Sort(rows)

	hash := sha256.New()
	for i, row := range rows {
		if i > 0 {
			hash.Write([]byte{0x1e})
		}
		hash.Write([]byte(row))
	}
	return hex.EncodeToString(hash.Sum(nil))
}

// OnOrAfter keeps the lessons whose date is not before day. Lessons without a date are kept.
func (snapshot *ScheduleSnapshot) OnOrAfter(day time.Time) *ScheduleSnapshot {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	lessons := make([]LessonRecord, 0, len(snapshot.Lessons))
	for _, lesson := range snapshot.Lessons {
		if lesson.Date.IsZero() || !lesson.Date.Before(day) {
			lessons = append(lessons, lesson)
		}
	}
	return &ScheduleSnapshot{Target: snapshot.Target, FetchedAt: snapshot.FetchedAt, Lessons: lessons}
}

// ForDate returns the lessons published for the given calendar day.
func (snapshot *ScheduleSnapshot) ForDate(day time.Time) []LessonRecord {
	var lessons []LessonRecord
	for _, lesson := range snapshot.Lessons {
		y1, m1, d1 := lesson.Date.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			lessons = append(lessons, lesson)
		}
	}
	return lessons
}
