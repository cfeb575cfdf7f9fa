package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Job names used across the scheduler, consumer and API.
const (
	JobSyncUsers       = "sync-users"
	JobEnrichAddresses = "enrich-addresses"
	JobEnrichCards     = "enrich-cards"
)

// Config is built once in main and passed down; nothing reads the
// environment after startup.
type Config struct {
	DatabaseDSN string
	RedisAddr   string
	JWTSecret   string

	ProviderBaseURL string
	RequestTimeout  time.Duration

	SyncUsersEvery  time.Duration
	EnrichAddrEvery time.Duration
	EnrichCardEvery time.Duration
	BatchSize       int
}

// Load reads configuration from the environment. Invalid durations or a
// non-positive batch size are startup failures, not job-run failures.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN:     getEnv("DATABASE_DSN", "root:@tcp(127.0.0.1:3306)/user-sync-db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://dummyjson.com"),
	}

	timeoutSecs, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSecs <= 0 {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS: %q", os.Getenv("REQUEST_TIMEOUT_SECONDS"))
	}
	cfg.RequestTimeout = time.Duration(timeoutSecs) * time.Second

	if cfg.SyncUsersEvery, err = ParseDuration(getEnv("SYNC_USERS_EVERY", "15m")); err != nil {
		return nil, err
	}
	if cfg.EnrichAddrEvery, err = ParseDuration(getEnv("ENRICH_ADDR_EVERY", "10m")); err != nil {
		return nil, err
	}
	if cfg.EnrichCardEvery, err = ParseDuration(getEnv("ENRICH_CARD_EVERY", "10m")); err != nil {
		return nil, err
	}

	cfg.BatchSize, err = strconv.Atoi(getEnv("BATCH_SIZE", "20"))
	if err != nil || cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("invalid BATCH_SIZE: %q", getEnv("BATCH_SIZE", "20"))
	}

	return cfg, nil
}

var durationRe = regexp.MustCompile(`^(\d+)([smh]?)$`)

// ParseDuration parses schedule strings like "30s", "15m", "1h". A missing
// suffix means seconds.
func ParseDuration(text string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, fmt.Errorf("invalid duration: %q", text)
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", text)
	}
	unit := time.Second
	switch m[2] {
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	}
	return time.Duration(value) * unit, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
