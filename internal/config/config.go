// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// JobConfig describes one scheduled job entry.
// Weekdays empty means the job recurs daily.
type JobConfig struct {
	Kind      string
	TimeOfDay string // HH:MM, local time
	Weekdays  []time.Weekday
}

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the database and artifacts (always absolute)
	OutputDir    string // Directory for scan export files
	DatabasePath string

	LogLevel string
	DevMode  bool

	MarketFilter string // all, sh, sz, cyb, kcb, bj
	ScanLimit    int    // >0 truncates the universe (test runs)

	MonitorInterval time.Duration // cadence of the price monitor tick

	Jobs []JobConfig
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STOCKPULSE_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	outputDir := filepath.Join(absDataDir, "output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs, err := parseJobs(getEnv("STOCKPULSE_JOBS", "scan_market@17:30"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse STOCKPULSE_JOBS: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		OutputDir:       outputDir,
		DatabasePath:    filepath.Join(absDataDir, "stockpulse.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		MarketFilter:    getEnv("STOCKPULSE_MARKET", "all"),
		ScanLimit:       getEnvAsInt("STOCKPULSE_SCAN_LIMIT", 0),
		MonitorInterval: getEnvAsDuration("STOCKPULSE_MONITOR_INTERVAL", time.Minute),
		Jobs:            jobs,
	}

	return cfg, nil
}

// parseJobs parses the semicolon-separated job list.
//
// Entry format: kind@HH:MM or kind@HH:MM:mon,tue,...
// Example: "scan_market@17:30:mon,tue,wed,thu,fri;resource_snapshot@06:00"
func parseJobs(raw string) ([]JobConfig, error) {
	var jobs []JobConfig
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "@", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid job entry %q: missing @time", entry)
		}
		kind := strings.TrimSpace(parts[0])

		spec := strings.SplitN(parts[1], ":", 3)
		if len(spec) < 2 {
			return nil, fmt.Errorf("invalid job entry %q: time must be HH:MM", entry)
		}
		timeOfDay := spec[0] + ":" + spec[1]
		if _, err := time.Parse("15:04", timeOfDay); err != nil {
			return nil, fmt.Errorf("invalid job entry %q: %w", entry, err)
		}

		var weekdays []time.Weekday
		if len(spec) == 3 && spec[2] != "" {
			for _, d := range strings.Split(spec[2], ",") {
				wd, err := parseWeekday(strings.TrimSpace(d))
				if err != nil {
					return nil, fmt.Errorf("invalid job entry %q: %w", entry, err)
				}
				weekdays = append(weekdays, wd)
			}
		}

		jobs = append(jobs, JobConfig{Kind: kind, TimeOfDay: timeOfDay, Weekdays: weekdays})
	}
	return jobs, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
