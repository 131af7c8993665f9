package datetime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("5.9.2025", time.UTC)
	want := time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)
	if err != nil || !date.Equal(want) {
		t.Errorf(`ParseDate(%q) = %s, %v, want %s`, "5.9.2025", date, err, want)
	}
	for _, input := range []string{"31.02.2025", "2025-09-05", "aa.bb.cccc", ""} {
		if _, err := ParseDate(input, time.UTC); err == nil {
			t.Errorf(`ParseDate(%q) = nil error, want error`, input)
		}
	}
}

func TestIsWithinHours(t *testing.T) {
	cases := []struct {
		hour int
		want bool
	}{{21, false}, {22, true}, {23, true}, {0, true}, {6, true}, {7, false}, {12, false}}
	for _, c := range cases {
		moment := time.Date(2025, time.October, 1, c.hour, 30, 0, 0, time.UTC)
		if result := IsWithinHours(moment, 22, 7); result != c.want {
			t.Errorf(`IsWithinHours(%02d:30, 22, 7) = %t, want %t`, c.hour, result, c.want)
		}
	}
}

func TestDateTimeJSON(t *testing.T) {
	value := DateTime(time.Date(2025, time.October, 13, 0, 0, 0, 0, time.UTC))
	bytes, err := json.Marshal(value)
	if err != nil || string(bytes) != `"13.10.2025"` {
		t.Errorf(`json.Marshal(DateTime) = %s, %v, want "13.10.2025"`, bytes, err)
	}
	var decoded DateTime
	if err := json.Unmarshal(bytes, &decoded); err != nil || decoded.Format("02.01.2006") != "13.10.2025" {
		t.Errorf(`json.Unmarshal(%s) = %s, %v, want 13.10.2025`, bytes, decoded.Format("02.01.2006"), err)
	}
}
