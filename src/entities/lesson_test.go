package entities

import (
	"testing"
	"time"
)

func TestNormalizeTimeSlot(t *testing.T) {
	for _, tc := range []struct {
		slot string
		want string
	}{
		{"9:00", "9:00"},
		{"09:00", "9:00"},
		{"10.30", "10:30"},
		{" 2 ", "2"},
		{"Доп. занятие", "доп. занятие"},
	} {
		if got := NormalizeTimeSlot(tc.slot); got != tc.want {
			t.Errorf(`NormalizeTimeSlot(%q) = %q, want %q`, tc.slot, got, tc.want)
		}
	}
}

func TestKeyIgnoresZeroPadding(t *testing.T) {
	a := LessonRecord{Weekday: time.Monday, TimeSlot: "09:00", Subject: "Математика"}
	b := LessonRecord{Weekday: time.Monday, TimeSlot: "9:00", Subject: "Математика"}
	if a.Key() != b.Key() {
		t.Errorf(`Key(09:00) = %v, Key(9:00) = %v, want equal`, a.Key(), b.Key())
	}
	if !a.Equal(&b) {
		t.Errorf(`Equal(09:00, 9:00) = false, want true`)
	}
}

func TestCompareLessonsByDate(t *testing.T) {
	friday := LessonRecord{Weekday: time.Friday, TimeSlot: "3", Date: time.Date(2025, time.October, 17, 0, 0, 0, 0, time.UTC)}
	monday := LessonRecord{Weekday: time.Monday, TimeSlot: "1", Date: time.Date(2025, time.October, 20, 0, 0, 0, 0, time.UTC)}
	if got := CompareLessons(&friday, &monday); got >= 0 {
		t.Errorf(`CompareLessons(Fri 17.10, Mon 20.10) = %d, want < 0`, got)
	}

	friday.Date, monday.Date = time.Time{}, time.Time{}
	if got := CompareLessons(&friday, &monday); got <= 0 {
		t.Errorf(`CompareLessons(Fri, Mon) without dates = %d, want > 0`, got)
	}
}
