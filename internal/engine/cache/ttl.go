package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL bounds and environment overrides.
const (
	// DefaultTTLSeconds keeps results for 15 minutes.
	DefaultTTLSeconds = 900

	// MinTTLSeconds is the shortest accepted TTL.
	MinTTLSeconds = 10

	// MaxTTLSeconds is the longest accepted TTL (7 days).
	MaxTTLSeconds = 604800

	// DefaultCacheMaxSizeMB is the default disk budget.
	DefaultCacheMaxSizeMB = 200

	minutesPerHour = 60
	hoursPerDay    = 24

	EnvTTLSeconds   = "SAGEQUERY_CACHE_TTL_SECONDS"
	EnvCacheEnabled = "SAGEQUERY_CACHE_ENABLED"
	EnvCacheDir     = "SAGEQUERY_CACHE_DIR"
	EnvCacheMaxSize = "SAGEQUERY_CACHE_MAX_SIZE_MB"
)

// ErrInvalidTTL is returned for TTLs outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// TTLConfig is a validated TTL.
type TTLConfig struct {
	Seconds  int
	Duration time.Duration
}

// NewTTLConfig validates seconds.
func NewTTLConfig(seconds int) (*TTLConfig, error) {
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return &TTLConfig{Seconds: seconds, Duration: time.Duration(seconds) * time.Second}, nil
}

// GetTTLFromEnv returns the TTL override, or fallback when unset or invalid.
func GetTTLFromEnv(fallback int) int {
	v, err := strconv.Atoi(os.Getenv(EnvTTLSeconds))
	if err != nil || v < MinTTLSeconds || v > MaxTTLSeconds {
		return fallback
	}
	return v
}

// GetCacheEnabledFromEnv returns the enabled override, or fallback.
func GetCacheEnabledFromEnv(fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(EnvCacheEnabled))
	if err != nil {
		return fallback
	}
	return v
}

// GetCacheDirFromEnv returns the directory override, or fallback.
func GetCacheDirFromEnv(fallback string) string {
	if v := os.Getenv(EnvCacheDir); v != "" {
		return v
	}
	return fallback
}

// GetCacheMaxSizeFromEnv returns the size override in MB, or fallback.
func GetCacheMaxSizeFromEnv(fallback int) int {
	v, err := strconv.Atoi(os.Getenv(EnvCacheMaxSize))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// FormatDuration renders d compactly: "45s", "30m", "1h30m", "2d3h".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < hoursPerDay*time.Hour:
		h, m := int(d.Hours()), int(d.Minutes())%minutesPerHour
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		days, h := int(d.Hours())/hoursPerDay, int(d.Hours())%hoursPerDay
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, h)
	}
}

// ParseTTL accepts integer seconds ("900") or a Go duration ("15m").
func ParseTTL(s string) (int, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		d, durErr := time.ParseDuration(s)
		if durErr != nil {
			return 0, fmt.Errorf("invalid TTL %q: %w", s, durErr)
		}
		seconds = int(d.Seconds())
	}
	cfg, err := NewTTLConfig(seconds)
	if err != nil {
		return 0, err
	}
	return cfg.Seconds, nil
}
