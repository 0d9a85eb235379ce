package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DatabaseURL      string
	RedisURL         string
	Environment      string
	MigrationsDir    string
	RunMigrations    bool
	RunSeed          bool
	SeedLegalYear    int
	SeedMinimumWage  string
	SeedAllowance    string
	LegalFile        string
	MaxBodyBytes     int64
	RequestTimeout   time.Duration
	BatchConcurrency int
	LockTTL          time.Duration
	JobQueueSize     int
	MetricsEnabled   bool
	RateLimit        int
	RateLimitWindow  time.Duration
	ShutdownTimeout  time.Duration
}

// Load reads the environment. A .env file, when present, fills variables that
// are not already set.
func Load() Config {
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !os.IsNotExist(err) {
		slog.Warn("env file not loaded", "err", err)
	}
	return Config{
		Addr:             getEnv("APP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		Environment:      getEnv("APP_ENV", "development"),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),
		RunMigrations:    getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:          getEnvBool("RUN_SEED", true),
		SeedLegalYear:    getEnvInt("SEED_LEGAL_YEAR", time.Now().Year()),
		SeedMinimumWage:  getEnv("SEED_MINIMUM_WAGE", "1423500"),
		SeedAllowance:    getEnv("SEED_TRANSPORT_ALLOWANCE", "200000"),
		LegalFile:        getEnv("LEGAL_FILE", ""),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 4),
		LockTTL:          getEnvDuration("LOCK_TTL", 30*time.Second),
		JobQueueSize:     getEnvInt("JOB_QUEUE_SIZE", 16),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		RateLimit:        getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive")
	}
	if c.JobQueueSize < 1 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be positive")
	}
	if c.RateLimit > 0 && c.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if c.RedisURL != "" && c.LockTTL < time.Second {
		return fmt.Errorf("LOCK_TTL must be at least 1s when REDIS_URL is set")
	}
	if c.Environment == "production" {
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set in production so payroll writes lock across instances")
		}
		if c.RunSeed && c.LegalFile == "" {
			return fmt.Errorf("RUN_SEED must be disabled or LEGAL_FILE set in production")
		}
	}
	return nil
}
