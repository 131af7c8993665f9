package mtec_api

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/utils"
	datetime "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/date_time"
)

const (
	STUDENT_ROW_CELLS = 3
	MENTOR_ROW_CELLS  = 4
)

var (
	captionDatePattern = regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{4})`)
	lessonTypePattern  = regexp.MustCompile(`(?i)\s*\(([a-zа-яё.]{2,6})\)\s*$`)
	pairSuffixPattern  = regexp.MustCompile(`(?i)\s*(-?я)?\s*пара\.?\s*$`)
)

type ParseOptions struct {
	Target entities.Target
	// Date is used when the markup carries no date of its own.
	Date time.Time
}

type Parser struct {
	location *time.Location
}

func NewParser(location *time.Location) *Parser {
	if location == nil {
		location = time.UTC
	}
	return &Parser{location: location}
}

// Parse reads every schedule table of the markup. Student rows are [pair, subject<br>teacher, room],
// mentor rows are [pair, subject<br>details, group, room]. Any row missing the day, the time slot or
// the subject fails the whole page.
func (parser *Parser) Parse(raw []byte, opts ParseOptions) ([]entities.LessonRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, NewParseError(0, "", err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, NewParseError(0, "", ErrNoTable)
	}

	expectedCells := STUDENT_ROW_CELLS
	if opts.Target.Kind == entities.Mentor {
		expectedCells = MENTOR_ROW_CELLS
	}

	lessons := []entities.LessonRecord{}
	rowNumber := 0
	for i := range tables.Length() {
		table := tables.Eq(i)
		day := parser.tableDate(table)
		if day.IsZero() {
			day = opts.Date
		}

		var parseErr error
		table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.ChildrenFiltered("td")
			if cells.Length() == 0 {
				return true
			}
			rowNumber++
			lines := make([][]string, cells.Length())
			blank := true
			for j := range cells.Length() {
				lines[j] = cellLines(cells.Eq(j))
				if len(lines[j]) > 0 {
					blank = false
				}
			}
			if blank {
				return true
			}
			if len(lines) != expectedCells {
				parseErr = NewParseError(rowNumber, "", ErrUnexpectedRow)
				return false
			}
			if day.IsZero() {
				parseErr = NewParseError(rowNumber, "day", ErrMissingField)
				return false
			}

			lesson, err := buildLesson(lines, opts.Target, day)
			if err != nil {
				parseErr = NewParseError(rowNumber, err.Error(), ErrMissingField)
				return false
			}
			lessons = append(lessons, *lesson)
			return true
		})
		if parseErr != nil {
			return nil, parseErr
		}
	}
	return lessons, nil
}

type missingField string

func (field missingField) Error() string {
	return string(field)
}

func buildLesson(lines [][]string, target entities.Target, day time.Time) (*entities.LessonRecord, error) {
	timeSlot := ""
	if len(lines[0]) > 0 {
		timeSlot = strings.TrimSpace(pairSuffixPattern.ReplaceAllString(lines[0][0], ""))
	}
	if timeSlot == "" {
		return nil, missingField("time")
	}
	if len(lines[1]) == 0 {
		return nil, missingField("subject")
	}

	subject, lessonType := splitLessonType(lines[1][0])
	if subject == "" {
		return nil, missingField("subject")
	}
	details := strings.Join(lines[1][1:], " ")
	room := strings.Join(lines[len(lines)-1], " ")

	lesson := &entities.LessonRecord{
		Weekday:    day.Weekday(),
		TimeSlot:   timeSlot,
		Subject:    subject,
		Room:       room,
		LessonType: lessonType,
		Date:       day,
	}
	if target.Kind == entities.Mentor {
		lesson.Teacher = target.Name
		lesson.GroupId = strings.Join(lines[2], " ")
		if lesson.GroupId == "" {
			lesson.GroupId = details
		}
	} else {
		lesson.GroupId = target.Name
		lesson.Teacher = details
	}
	return lesson, nil
}

func splitLessonType(subject string) (string, string) {
	match := lessonTypePattern.FindStringSubmatchIndex(subject)
	if match == nil {
		return utils.CollapseSpaces(subject), ""
	}
	return utils.CollapseSpaces(subject[:match[0]]), subject[match[2]:match[3]]
}

// tableDate looks for a date in the caption or header cells of the table, then in the nearest preceding heading.
func (parser *Parser) tableDate(table *goquery.Selection) time.Time {
	candidates := []string{
		table.Find("caption").Text(),
		table.Find("th").Text(),
		table.PrevAllFiltered("h1, h2, h3, h4, h5, h6, p, strong").First().Text(),
	}
	for _, text := range candidates {
		match := captionDatePattern.FindString(text)
		if match == "" {
			continue
		}
		date, err := datetime.ParseDate(match, parser.location)
		if err == nil {
			return date
		}
	}
	return time.Time{}
}

// cellLines splits the cell text on <br> and block elements and drops blank lines.
func cellLines(cell *goquery.Selection) []string {
	var lines []string
	var builder strings.Builder
	flush := func() {
		line := utils.CollapseSpaces(builder.String())
		if line != "" {
			lines = append(lines, line)
		}
		builder.Reset()
	}

	var walk func(*goquery.Selection)
	walk = func(selection *goquery.Selection) {
		selection.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "br":
				flush()
			case "#text":
				builder.WriteString(node.Text())
			case "p", "div", "li":
				flush()
				walk(node)
				flush()
			default:
				walk(node)
			}
		})
	}
	walk(cell)
	flush()
	return lines
}
