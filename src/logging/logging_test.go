package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHandler(t *testing.T) {
	SetLevel("info")

	var text bytes.Buffer
	slog.New(NewHandler(&text, "dev")).Info("polling cycle finished", "changed", 2)
	if !strings.Contains(text.String(), `msg="polling cycle finished" changed=2`) {
		t.Errorf(`text handler output = %q`, text.String())
	}

	var raw bytes.Buffer
	slog.New(NewHandler(&raw, PROD_ENV)).Info("polling cycle finished", "changed", 2)
	var record map[string]any
	if err := json.Unmarshal(raw.Bytes(), &record); err != nil {
		t.Fatalf(`json handler output %q: %v`, raw.String(), err)
	}
	if record["msg"] != "polling cycle finished" || record["changed"] != float64(2) {
		t.Errorf(`json handler record = %v`, record)
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")
	for _, tc := range []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	} {
		SetLevel(tc.name)
		if got := level.Level(); got != tc.want {
			t.Errorf(`SetLevel(%q) level = %v, want %v`, tc.name, got, tc.want)
		}
	}
}
