package mtec_api

import (
	"errors"
	"testing"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
)

const studentPage = `
<h3>Расписание группы ИТ205 на 13.10.2025</h3>
<table>
	<tr><th>Пара</th><th>Предмет</th><th>Аудитория</th></tr>
	<tr><td>1 пара</td><td>Математика (лк)<br>Иванов И. И.</td><td>301</td></tr>
	<tr><td>2 пара</td><td>Физика<br/>Петров П. П.</td><td>205</td></tr>
	<tr><td></td><td></td><td></td></tr>
</table>`

const mentorPage = `
<table>
	<caption>14.10.2025</caption>
	<tr><td>3</td><td>Информатика<br>1 подгруппа</td><td>ИТ205</td><td>410</td></tr>
</table>`

func TestParseStudentPage(t *testing.T) {
	parser := NewParser(time.UTC)
	target := entities.NewGroupTarget("ИТ205")
	lessons, err := parser.Parse([]byte(studentPage), ParseOptions{Target: target})
	if err != nil {
		t.Fatalf(`Parse(studentPage) returned error %v`, err)
	}
	if len(lessons) != 2 {
		t.Fatalf(`len(Parse(studentPage)) = %d, want 2`, len(lessons))
	}

	first := lessons[0]
	if first.Weekday != time.Monday || first.TimeSlot != "1" {
		t.Errorf(`Parse(studentPage)[0] key = (%s, %s), want (Monday, 1)`, first.Weekday, first.TimeSlot)
	}
	if first.Subject != "Математика" || first.LessonType != "лк" {
		t.Errorf(`Parse(studentPage)[0] subject = %q (%q), want "Математика" ("лк")`, first.Subject, first.LessonType)
	}
	if first.Teacher != "Иванов И. И." || first.Room != "301" || first.GroupId != "ИТ205" {
		t.Errorf(`Parse(studentPage)[0] = %+v, want teacher Иванов И. И., room 301, group ИТ205`, first)
	}
	if lessons[1].Teacher != "Петров П. П." {
		t.Errorf(`Parse(studentPage)[1].Teacher = %q, want "Петров П. П."`, lessons[1].Teacher)
	}
}

func TestParseMentorPage(t *testing.T) {
	parser := NewParser(time.UTC)
	target := entities.NewMentorTarget("Иванов Иван Иванович")
	lessons, err := parser.Parse([]byte(mentorPage), ParseOptions{Target: target})
	if err != nil {
		t.Fatalf(`Parse(mentorPage) returned error %v`, err)
	}
	if len(lessons) != 1 {
		t.Fatalf(`len(Parse(mentorPage)) = %d, want 1`, len(lessons))
	}
	lesson := lessons[0]
	if lesson.Weekday != time.Tuesday || lesson.GroupId != "ИТ205" || lesson.Teacher != target.Name || lesson.Room != "410" {
		t.Errorf(`Parse(mentorPage)[0] = %+v, want Tuesday ИТ205 in 410`, lesson)
	}
}

func TestParseFallsBackToRequestDate(t *testing.T) {
	page := `<table><tr><td>1</td><td>История</td><td>12</td></tr></table>`
	date := time.Date(2025, time.October, 17, 0, 0, 0, 0, time.UTC)
	lessons, err := NewParser(time.UTC).Parse([]byte(page), ParseOptions{Target: entities.NewGroupTarget("ИТ205"), Date: date})
	if err != nil {
		t.Fatalf(`Parse(page, date) returned error %v`, err)
	}
	if len(lessons) != 1 || lessons[0].Weekday != time.Friday {
		t.Errorf(`Parse(page, %s) = %+v, want one lesson on Friday`, date.Format(DATE_FORMAT), lessons)
	}
}

func TestParseEmptyTableIsEmptyDay(t *testing.T) {
	page := `<table><caption>13.10.2025</caption><tr><th>Пара</th></tr></table>`
	lessons, err := NewParser(time.UTC).Parse([]byte(page), ParseOptions{Target: entities.NewGroupTarget("ИТ205")})
	if err != nil {
		t.Fatalf(`Parse(empty table) returned error %v`, err)
	}
	if len(lessons) != 0 {
		t.Errorf(`len(Parse(empty table)) = %d, want 0`, len(lessons))
	}
}

func TestParseErrors(t *testing.T) {
	target := entities.NewGroupTarget("ИТ205")
	date := time.Date(2025, time.October, 13, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		page  string
		date  time.Time
		field string
		want  error
	}{
		{"no table", `<p>Расписание не найдено</p>`, date, "", ErrNoTable},
		{"missing day", `<table><tr><td>1</td><td>Физика</td><td>1</td></tr></table>`, time.Time{}, "day", ErrMissingField},
		{"missing time", `<table><tr><td>пара</td><td>Физика</td><td>1</td></tr></table>`, date, "time", ErrMissingField},
		{"missing subject", `<table><tr><td>1</td><td></td><td>1</td></tr></table>`, date, "subject", ErrMissingField},
		{"wrong cell count", `<table><tr><td>1</td><td>Физика</td></tr></table>`, date, "", ErrUnexpectedRow},
	}

	parser := NewParser(time.UTC)
	for _, test := range tests {
		_, err := parser.Parse([]byte(test.page), ParseOptions{Target: target, Date: test.date})
		if !IsParseError(err) {
			t.Errorf(`Parse(%s) = %v, want ParseError`, test.name, err)
			continue
		}
		if !errors.Is(err, test.want) {
			t.Errorf(`Parse(%s) = %v, want wrapping %v`, test.name, err, test.want)
		}
		var parseErr *ParseError
		errors.As(err, &parseErr)
		if parseErr.Field != test.field {
			t.Errorf(`Parse(%s).Field = %q, want %q`, test.name, parseErr.Field, test.field)
		}
	}
}
