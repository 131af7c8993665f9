package datetime

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrDateFormat = errors.New("date is not in format 12.02.2023")

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate parses DD.MM.YYYY (single digit day and month allowed) at midnight in location.
func ParseDate(value string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 3 {
		return time.Time{}, ErrDateFormat
	}
	days, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, errors.Join(ErrDateFormat, err)
	}
	months, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, errors.Join(ErrDateFormat, err)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, errors.Join(ErrDateFormat, err)
	}
	if months < 1 || months > 12 || days < 1 || days > 31 {
		return time.Time{}, ErrDateFormat
	}
	date := time.Date(year, time.Month(months), days, 0, 0, 0, 0, location)
	if date.Day() != days {
		return time.Time{}, ErrDateFormat
	}
	return date, nil
}

// IsWithinHours reports whether the hour of t falls in [start, end), wrapping over midnight when start > end.
func IsWithinHours(t time.Time, start, end int) bool {
	hour := t.Hour()
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
