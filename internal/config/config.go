// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or an analysis tunable is
// out of range, the process exits before touching any data.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gorgaloro/job-automation-sub001/internal/analysis"
)

// Config holds all runtime configuration for the reconciler service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	ReconcileIntervalHours int // how often the cron job fires
	MaxParallelCompanies   int // per-company worker fan-out
	AnalyticsCacheTTL      time.Duration

	LogJSON  bool
	LogDebug bool

	Analysis analysis.Config
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("RECONCILER_PORT")
	if port == "" {
		port = "8084"
	}

	cfg := &Config{
		Port:                   port,
		DatabaseURL:            dbURL,
		RedisURL:               redisURL,
		ReconcileIntervalHours: 12,
		MaxParallelCompanies:   4,
		AnalyticsCacheTTL:      30 * time.Minute,
		LogJSON:                os.Getenv("LOG_JSON") == "true",
		LogDebug:               os.Getenv("LOG_DEBUG") == "true",
		Analysis:               analysis.DefaultConfig(),
	}

	if err := parseEnvInt("RECONCILE_INTERVAL_HOURS", &cfg.ReconcileIntervalHours); err != nil {
		return nil, err
	}
	if cfg.ReconcileIntervalHours < 1 {
		return nil, fmt.Errorf("RECONCILE_INTERVAL_HOURS must be a positive integer, got %d", cfg.ReconcileIntervalHours)
	}
	if err := parseEnvInt("MAX_PARALLEL_COMPANIES", &cfg.MaxParallelCompanies); err != nil {
		return nil, err
	}
	if cfg.MaxParallelCompanies < 1 {
		return nil, fmt.Errorf("MAX_PARALLEL_COMPANIES must be a positive integer, got %d", cfg.MaxParallelCompanies)
	}
	cacheMinutes := 0
	if err := parseEnvInt("ANALYTICS_CACHE_TTL_MINUTES", &cacheMinutes); err != nil {
		return nil, err
	}
	if cacheMinutes > 0 {
		cfg.AnalyticsCacheTTL = time.Duration(cacheMinutes) * time.Minute
	}

	if err := loadAnalysis(&cfg.Analysis); err != nil {
		return nil, err
	}
	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("analysis tuning: %w", err)
	}

	return cfg, nil
}

// loadAnalysis overlays analysis tunables from the environment onto the
// documented defaults. Range checks happen afterwards in Validate.
func loadAnalysis(a *analysis.Config) error {
	if err := parseEnvFloat("DUPLICATE_THRESHOLD", &a.DuplicateThreshold); err != nil {
		return err
	}
	days := 0
	if err := parseEnvInt("GATING_WINDOW_DAYS", &days); err != nil {
		return err
	}
	if days > 0 {
		a.GatingWindow = time.Duration(days) * 24 * time.Hour
	}
	if err := parseEnvBool("REQUIRE_COMPLETE_LINKS", &a.RequireCompleteLinks); err != nil {
		return err
	}

	if err := parseEnvFloat("SIMILARITY_WEIGHT_CONTENT", &a.Similarity.Content); err != nil {
		return err
	}
	if err := parseEnvFloat("SIMILARITY_WEIGHT_LOCATION", &a.Similarity.Location); err != nil {
		return err
	}
	if err := parseEnvFloat("SIMILARITY_WEIGHT_SALARY", &a.Similarity.Salary); err != nil {
		return err
	}

	if err := parseEnvFloat("QUALITY_WEIGHT_CONSISTENCY", &a.Quality.Consistency); err != nil {
		return err
	}
	if err := parseEnvFloat("QUALITY_WEIGHT_PRIMARY", &a.Quality.PrimaryResolution); err != nil {
		return err
	}
	if err := parseEnvFloat("QUALITY_WEIGHT_FRESHNESS", &a.Quality.Freshness); err != nil {
		return err
	}

	if err := parseEnvFloat("OUTDATED_FRACTION_MAX", &a.OutdatedFractionMax); err != nil {
		return err
	}
	return parseEnvFloat("CONSISTENCY_FLOOR", &a.ConsistencyFloor)
}

func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	*dest = parsed
	return nil
}

func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", key, value)
	}
	*dest = parsed
	return nil
}

func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	*dest = parsed
	return nil
}
