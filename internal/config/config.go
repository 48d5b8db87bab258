package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Reference date modes accepted by REFERENCE_DATE besides a literal YYYY-MM-DD.
const (
	ReferenceLatest = "latest"
	ReferenceToday  = "today"

	// ActiveStationAuto selects the station with the most measurements.
	ActiveStationAuto = "auto"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	LogSQL   bool
	HTTPAddr string

	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration

	// ReferenceDate is "latest", "today" or a fixed date in YYYY-MM-DD form.
	ReferenceDate string
	WindowDays    int
	ActiveStation string

	// LegacyStationCountField also emits the station count under "date".
	LegacyStationCountField bool

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	logSQL, err := envBool("LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "Resources/hawaii.sqlite"
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	queryTimeout, err := envDuration("QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	if queryTimeout <= 0 {
		return Config{}, fmt.Errorf("QUERY_TIMEOUT must be > 0, got %s", queryTimeout)
	}

	referenceDate := strings.ToLower(strings.TrimSpace(os.Getenv("REFERENCE_DATE")))
	if referenceDate == "" {
		referenceDate = ReferenceLatest
	}
	switch referenceDate {
	case ReferenceLatest, ReferenceToday:
	default:
		if _, err := time.Parse(time.DateOnly, referenceDate); err != nil {
			return Config{}, fmt.Errorf("invalid REFERENCE_DATE %q (allowed: latest, today, YYYY-MM-DD)", referenceDate)
		}
	}

	windowDays, err := envInt("WINDOW_DAYS", 365)
	if err != nil {
		return Config{}, err
	}
	if windowDays <= 0 {
		return Config{}, fmt.Errorf("WINDOW_DAYS must be > 0, got %d", windowDays)
	}

	activeStation := strings.TrimSpace(os.Getenv("ACTIVE_STATION"))
	if activeStation == "" {
		activeStation = "USC00519281"
	}

	legacyCount, err := envBool("STATION_COUNT_LEGACY_FIELD", false)
	if err != nil {
		return Config{}, err
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	rpsStr := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS"))
	if rpsStr == "" {
		rpsStr = "0"
	}
	rps, err := strconv.ParseFloat(rpsStr, 64)
	if err != nil || rps < 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_RPS %q (expected number >= 0)", rpsStr)
	}
	burst, err := envInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return Config{}, err
	}
	if rps > 0 && burst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be > 0 when rate limiting is enabled, got %d", burst)
	}

	return Config{
		AppEnv:                  appEnv,
		LogLevel:                level,
		LogSQL:                  logSQL,
		HTTPAddr:                httpAddr,
		Path:                    path,
		DSN:                     dsn,
		MaxOpenConns:            maxOpenConns,
		MaxIdleConns:            maxIdleConns,
		ConnMaxLifetime:         connMaxLifetime,
		QueryTimeout:            queryTimeout,
		ReferenceDate:           referenceDate,
		WindowDays:              windowDays,
		ActiveStation:           activeStation,
		LegacyStationCountField: legacyCount,
		CORSAllowedOrigins:      origins,
		RateLimitRPS:            rps,
		RateLimitBurst:          burst,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
