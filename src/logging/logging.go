package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const PROD_ENV = "prod"

var level = new(slog.LevelVar)

func replaceTime(groups []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.TimeKey || len(groups) != 0 {
		return attr
	}
	attr.Value = slog.StringValue(attr.Value.Time().Format(time.DateTime))
	return attr
}

// NewHandler writes text logs, or JSON logs in the prod environment.
func NewHandler(w io.Writer, env string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceTime}
	if env == PROD_ENV {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func FatalLog(message string) {
	slog.Error(message)
	os.Exit(-1)
}

func Info(message string) {
	slog.Info(message)
}

// InitLogging installs the text handler used until the config is loaded.
func InitLogging() {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, "")))
}

func Configure(env, levelName string) {
	SetLevel(levelName)
	slog.SetDefault(slog.New(NewHandler(os.Stderr, env)))
}

// SetLevel accepts debug, info, warn or error. Anything else keeps info.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}
