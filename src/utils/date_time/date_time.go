package datetime

import (
	"encoding/json"
	"strings"
	"time"
)

// DateTime is a calendar date serialized as "02.01.2006".
type DateTime time.Time

func (dt *DateTime) UnmarshalJSON(json []byte) error {
	dateString := strings.Trim(string(json), `"`)
	if dateString == "null" || dateString == "" {
		*dt = DateTime{}
		return nil
	}
	date, err := ParseDate(dateString, time.Local)
	if err != nil {
		return err
	}
	*dt = DateTime(date)
	return nil
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if time.Time(dt).IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(time.Time(dt).Format("02.01.2006"))
}

func (dt DateTime) Format(s string) string {
	return time.Time(dt).Format(s)
}

func (dt DateTime) In(location *time.Location) time.Time {
	t := time.Time(dt)
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}
