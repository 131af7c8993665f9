package mtec_api

import (
	"regexp"
	"slices"
	"strings"
	"time"

	datetime "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/date_time"
)

var (
	datePattern   = regexp.MustCompile(`>(\d{1,2}\.\d{1,2}\.\d{4})<`)
	groupPattern  = regexp.MustCompile(`([A-ZА-ЯЁ]+\d{1,3})`)
	mentorPattern = regexp.MustCompile(`value="([А-Яа-яЁё\s]+)"`)
)

type SearchParameters struct {
	Groups  []string
	Mentors []string
	Dates   []time.Time
}

// ParseSearchParameters extracts groups, mentors and published dates. Both request types return
// the same markup shape, the unused list simply comes back empty.
func ParseSearchParameters(raw []byte, location *time.Location) *SearchParameters {
	text := string(raw)
	params := &SearchParameters{}

	seen := map[string]bool{}
	for _, match := range groupPattern.FindAllStringSubmatch(text, -1) {
		group := match[1]
		if len([]rune(group)) < 2 || seen[group] {
			continue
		}
		seen[group] = true
		params.Groups = append(params.Groups, group)
	}

	seen = map[string]bool{}
	for _, match := range mentorPattern.FindAllStringSubmatch(text, -1) {
		mentor := strings.Join(strings.Fields(match[1]), " ")
		if len([]rune(mentor)) < 3 || seen[mentor] {
			continue
		}
		seen[mentor] = true
		params.Mentors = append(params.Mentors, mentor)
	}

	seenDates := map[time.Time]bool{}
	for _, match := range datePattern.FindAllStringSubmatch(text, -1) {
		date, err := datetime.ParseDate(match[1], location)
		if err != nil || seenDates[date] {
			continue
		}
		seenDates[date] = true
		params.Dates = append(params.Dates, date)
	}
	slices.SortFunc(params.Dates, func(a, b time.Time) int { return a.Compare(b) })
	return params
}

// UpcomingDates keeps the dates within [today, today+7d), at most one per weekday.
func (params *SearchParameters) UpcomingDates(now time.Time) []time.Time {
	today := datetime.StartOfDay(now)
	limit := today.AddDate(0, 0, 7)
	var dates []time.Time
	seenDays := map[time.Weekday]bool{}
	for _, date := range params.Dates {
		if date.Before(today) || !date.Before(limit) || seenDays[date.Weekday()] {
			continue
		}
		seenDays[date.Weekday()] = true
		dates = append(dates, date)
	}
	return dates
}

func (params *SearchParameters) HasGroup(group string) bool {
	return slices.Contains(params.Groups, group)
}
