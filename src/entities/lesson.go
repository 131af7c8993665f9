package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/utils"
)

var DayToName = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// LessonRecord is one parsed lesson. Date is the day the lesson was published for and takes no part in equality.
type LessonRecord struct {
	GroupId    string
	Weekday    time.Weekday
	TimeSlot   string
	Subject    string
	Room       string
	Teacher    string
	LessonType string
	Date       time.Time
}

type LessonKey struct {
	Weekday  time.Weekday
	TimeSlot string
}

func (lesson *LessonRecord) Key() LessonKey {
	return LessonKey{Weekday: lesson.Weekday, TimeSlot: NormalizeTimeSlot(lesson.TimeSlot)}
}

// NormalizeTimeSlot writes numeric slots one way, "09.00" and "9:00" both become "9:00".
func NormalizeTimeSlot(slot string) string {
	parts := slotParts(slot)
	if parts == nil {
		return utils.NormalizeText(slot)
	}
	var builder strings.Builder
	builder.WriteString(strconv.Itoa(parts[0]))
	for _, part := range parts[1:] {
		builder.WriteString(fmt.Sprintf(":%02d", part))
	}
	return builder.String()
}

func (lesson *LessonRecord) Equal(other *LessonRecord) bool {
	return lesson.canonical() == other.canonical()
}

// canonical joins the normalized fields with the unit separator.
func (lesson *LessonRecord) canonical() string {
	return strings.Join([]string{
		strconv.Itoa(WeekdayOrder(lesson.Weekday)),
		NormalizeTimeSlot(lesson.TimeSlot),
		utils.NormalizeText(lesson.GroupId),
		utils.NormalizeText(lesson.Subject),
		utils.NormalizeText(lesson.Room),
		utils.NormalizeText(lesson.Teacher),
		utils.NormalizeText(lesson.LessonType),
	}, "\x1f")
}

// WeekdayOrder puts Monday first.
func WeekdayOrder(day time.Weekday) int {
	return (int(day) + 6) % 7
}

// CompareDays orders calendar dates when both are known and weekdays, Monday first, otherwise.
func CompareDays(aWeekday time.Weekday, aDate time.Time, bWeekday time.Weekday, bDate time.Time) int {
	if !aDate.IsZero() && !bDate.IsZero() {
		if diff := aDate.Compare(bDate); diff != 0 {
			return diff
		}
	}
	return WeekdayOrder(aWeekday) - WeekdayOrder(bWeekday)
}

// CompareLessons orders by day, time slot, then the remaining fields.
func CompareLessons(a, b *LessonRecord) int {
	if diff := CompareDays(a.Weekday, a.Date, b.Weekday, b.Date); diff != 0 {
		return diff
	}
	if diff := CompareTimeSlots(a.TimeSlot, b.TimeSlot); diff != 0 {
		return diff
	}
	return strings.Compare(a.canonical(), b.canonical())
}

// CompareTimeSlots compares "9:00" and "10:30" or pair numbers "1" and "2" numerically.
func CompareTimeSlots(a, b string) int {
	aParts := slotParts(a)
	bParts := slotParts(b)
	if aParts != nil && bParts != nil {
		for i := 0; i < len(aParts) && i < len(bParts); i++ {
			if aParts[i] != bParts[i] {
				return aParts[i] - bParts[i]
			}
		}
		return len(aParts) - len(bParts)
	}
	return strings.Compare(utils.NormalizeText(a), utils.NormalizeText(b))
}

func slotParts(slot string) []int {
	fields := strings.FieldsFunc(strings.TrimSpace(slot), func(r rune) bool { return r == ':' || r == '.' })
	if len(fields) == 0 {
		return nil
	}
	parts := make([]int, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil
		}
		parts = append(parts, value)
	}
	return parts
}
