package schedule

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/utils"
)

const (
	CHANGES_CAPTION  = "🆕 Расписание изменилось!"
	EMPTY_SCHEDULE   = "Расписание пока не опубликовано."
	NO_LESSONS       = "Занятий нет 🎉"
	DAY_DATE_FORMAT  = "02.01"
	ADDED_MARKER     = "➕"
	REMOVED_MARKER   = "➖"
	MODIFIED_MARKER  = "✏️"
	MODIFIED_ARROW   = "→"
	LESSON_SEPARATOR = " · "
)

// TargetTitle is the display name of a group or a mentor.
func TargetTitle(target entities.Target) string {
	if target.Kind == entities.Mentor {
		return "👨‍🏫 " + utils.TitleName(target.Name)
	}
	return "👥 " + target.Name
}

// dayMark tells the day headers apart. The date keeps two weeks of the same weekday apart.
type dayMark struct {
	weekday time.Weekday
	date    time.Time
}

func markOf(lesson *entities.LessonRecord) dayMark {
	return dayMark{weekday: lesson.Weekday, date: lesson.Date}
}

func (mark dayMark) equal(other dayMark) bool {
	return mark.weekday == other.weekday && mark.date.Equal(other.date)
}

func dayTitle(weekday time.Weekday, date time.Time) string {
	title := entities.DayToName[weekday]
	if !date.IsZero() {
		title += ", " + date.Format(DAY_DATE_FORMAT)
	}
	return "<b>" + title + "</b>"
}

// FormatLesson renders one lesson line. Mentor schedules show the group instead of the mentor.
func FormatLesson(lesson *entities.LessonRecord, kind entities.TargetKind) string {
	subject := lesson.Subject
	if lesson.LessonType != "" {
		subject += " (" + lesson.LessonType + ")"
	}
	parts := []string{fmt.Sprintf("%s. %s", lesson.TimeSlot, subject)}
	if lesson.Room != "" {
		parts = append(parts, "ауд. "+lesson.Room)
	}
	if kind == entities.Mentor {
		if lesson.GroupId != "" {
			parts = append(parts, lesson.GroupId)
		}
	} else if lesson.Teacher != "" {
		parts = append(parts, utils.ShortName(lesson.Teacher))
	}
	return html.EscapeString(strings.Join(parts, LESSON_SEPARATOR))
}

// FormatDiff renders the changes grouped by day in diff order.
func FormatDiff(diff *Diff) string {
	var builder strings.Builder
	builder.WriteString(CHANGES_CAPTION)
	builder.WriteString("\n")
	builder.WriteString(html.EscapeString(TargetTitle(diff.Target)))

	lastDay := dayMark{weekday: -1}
	for _, change := range diff.Changes {
		lesson := change.After
		if lesson == nil {
			lesson = change.Before
		}
		if day := markOf(lesson); !day.equal(lastDay) {
			lastDay = day
			builder.WriteString("\n\n")
			builder.WriteString(dayTitle(lesson.Weekday, lesson.Date))
		}
		builder.WriteString("\n")
		switch change.Kind {
		case Added:
			builder.WriteString(ADDED_MARKER + " " + FormatLesson(change.After, diff.Target.Kind))
		case Removed:
			builder.WriteString(REMOVED_MARKER + " <s>" + FormatLesson(change.Before, diff.Target.Kind) + "</s>")
		case Modified:
			builder.WriteString(MODIFIED_MARKER + " " + FormatLesson(change.Before, diff.Target.Kind))
			builder.WriteString("\n   " + MODIFIED_ARROW + " " + FormatLesson(change.After, diff.Target.Kind))
		}
	}
	return builder.String()
}

// FormatSnapshot renders the whole snapshot day by day.
func FormatSnapshot(snapshot *entities.ScheduleSnapshot) string {
	var builder strings.Builder
	builder.WriteString(html.EscapeString(TargetTitle(snapshot.Target)))
	if len(snapshot.Lessons) == 0 {
		builder.WriteString("\n\n" + EMPTY_SCHEDULE)
		return builder.String()
	}

	lastDay := dayMark{weekday: -1}
	for i := range snapshot.Lessons {
		lesson := &snapshot.Lessons[i]
		if day := markOf(lesson); !day.equal(lastDay) {
			lastDay = day
			builder.WriteString("\n\n")
			builder.WriteString(dayTitle(lesson.Weekday, lesson.Date))
		}
		builder.WriteString("\n")
		builder.WriteString(FormatLesson(lesson, snapshot.Target.Kind))
	}
	return builder.String()
}

// FormatDay renders the lessons of one date for the daily mailing.
func FormatDay(target entities.Target, date time.Time, lessons []entities.LessonRecord) string {
	var builder strings.Builder
	builder.WriteString("📅 ")
	builder.WriteString(html.EscapeString(TargetTitle(target)))
	builder.WriteString("\n")
	builder.WriteString(dayTitle(date.Weekday(), date))
	if len(lessons) == 0 {
		builder.WriteString("\n" + NO_LESSONS)
		return builder.String()
	}
	for i := range lessons {
		builder.WriteString("\n")
		builder.WriteString(FormatLesson(&lessons[i], target.Kind))
	}
	return builder.String()
}
