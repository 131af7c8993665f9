package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	STORAGE_SQLITE   = "sqlite"
	STORAGE_POSTGRES = "postgres"
	STORAGE_MEMORY   = "memory"
)

type Config struct {
	Env      string
	LogLevel string

	BotToken      string
	Debug         bool
	Owners        []int64
	UpdateTimeout time.Duration

	Storage    string
	DBDSN      string
	SchemaFile string
	RedisAddr  string
	HashTTL    time.Duration

	ScheduleURL     string
	ScheduleReferer string
	RequestTimeout  time.Duration
	FetchRetries    int
	FetchRetryDelay time.Duration

	PollInterval   time.Duration
	CheckTimeout   time.Duration
	NightInterval  time.Duration
	NightStart     int
	NightEnd       int
	DailyCron      string
	CleanupCron    string
	SnapshotMaxAge time.Duration
	Location       *time.Location

	SendConcurrency int
	SendRetries     int
	SpamLimit       int
	SpamWindow      time.Duration

	SheetsEnabled         bool
	GoogleCredentialsFile string
	GoogleTokenFile       string
	SpreadsheetTitle      string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in env, using default", "key", key, "value", v)
		return def
	}
	return d
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in env, using default", "key", key, "value", v)
		return def
	}
	return i
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// Load reads .env (if any), the environment and the command line, in that order of precedence.
func Load(args []string) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(fmt.Sprintf("failed to load .env file: %v", err))
	}

	cfg := &Config{
		Env:      getenv("APP_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		BotToken:      os.Getenv("BOT_TOKEN"),
		Debug:         getbool("DEBUG", false),
		UpdateTimeout: getdur("UPDATE_TIMEOUT", 30*time.Second),

		Storage:    getenv("STORAGE", STORAGE_SQLITE),
		DBDSN:      getenv("DB_DSN", "./sqlite3.db"),
		SchemaFile: os.Getenv("SCHEMA_FILE"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		HashTTL:    getdur("HASH_TTL", 24*time.Hour),

		ScheduleURL:     getenv("SCHEDULE_URL", "https://mtec.by/wp-admin/admin-ajax.php"),
		ScheduleReferer: getenv("SCHEDULE_REFERER", "https://mtec.by/ru/students/schedule"),
		RequestTimeout:  getdur("REQUEST_TIMEOUT", 30*time.Second),
		FetchRetries:    getint("FETCH_RETRIES", 3),
		FetchRetryDelay: getdur("FETCH_RETRY_DELAY", 500*time.Millisecond),

		PollInterval:   getdur("POLL_INTERVAL", 3*time.Minute),
		CheckTimeout:   getdur("CHECK_TIMEOUT", 15*time.Minute),
		NightInterval:  getdur("NIGHT_INTERVAL", time.Hour),
		NightStart:     getint("NIGHT_START", 22),
		NightEnd:       getint("NIGHT_END", 7),
		DailyCron:      getenv("DAILY_CRON", "0 19 * * *"),
		CleanupCron:    getenv("CLEANUP_CRON", "0 3 * * *"),
		SnapshotMaxAge: getdur("SNAPSHOT_MAX_AGE", 14*24*time.Hour),

		SendConcurrency: getint("SEND_CONCURRENCY", 10),
		SendRetries:     getint("SEND_RETRIES", 3),
		SpamLimit:       getint("SPAM_LIMIT", 5),
		SpamWindow:      getdur("SPAM_WINDOW", 15*time.Second),

		SheetsEnabled:         getbool("SHEETS_ENABLED", false),
		GoogleCredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GoogleTokenFile:       getenv("GOOGLE_TOKEN_FILE", "token.json"),
		SpreadsheetTitle:      getenv("SPREADSHEET_TITLE", "Расписание МТЭК"),
	}

	owners, err := ParseOwners(os.Getenv("OWNERS"))
	if err != nil {
		return nil, err
	}
	cfg.Owners = owners

	location, err := time.LoadLocation(getenv("TIMEZONE", "Europe/Minsk"))
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	cfg.Location = location

	flags := flag.NewFlagSet("mtec_schedule_bot", flag.ContinueOnError)
	flags.StringVar(&cfg.Storage, "storage", cfg.Storage, "storage backend: sqlite, postgres or memory")
	flags.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "database dsn")
	flags.StringVar(&cfg.Env, "env", cfg.Env, "environment name")
	err = flags.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	var errs []error
	if cfg.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is not set"))
	}
	switch cfg.Storage {
	case STORAGE_SQLITE, STORAGE_POSTGRES, STORAGE_MEMORY:
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", cfg.Storage))
	}
	if cfg.PollInterval <= 0 || cfg.NightInterval <= 0 {
		errs = append(errs, errors.New("poll intervals must be positive"))
	}
	if cfg.CheckTimeout <= 0 {
		errs = append(errs, errors.New("CHECK_TIMEOUT must be positive"))
	}
	if cfg.FetchRetries < 1 || cfg.SendRetries < 1 {
		errs = append(errs, errors.New("retry counts must be at least 1"))
	}
	if cfg.SendConcurrency < 1 {
		errs = append(errs, errors.New("SEND_CONCURRENCY must be at least 1"))
	}
	if cfg.NightStart < 0 || cfg.NightStart > 23 || cfg.NightEnd < 0 || cfg.NightEnd > 23 {
		errs = append(errs, errors.New("night hours must be within 0..23"))
	}
	return errors.Join(errs...)
}

func (cfg *Config) IsOwner(chatId int64) bool {
	for _, owner := range cfg.Owners {
		if owner == chatId {
			return true
		}
	}
	return false
}

func ParseOwners(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	owners := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.Join(err, fmt.Errorf("invalid owner id value %s", part))
		}
		owners = append(owners, id)
	}
	return owners, nil
}
