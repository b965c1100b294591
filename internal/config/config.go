package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the recommendation bot.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string
	AllowAnyOrigin   bool

	SessionTTL     time.Duration
	HistoryWindow  int
	JanitorEnabled bool

	ResolverMode     string
	ResolverTimeout  time.Duration
	SearchRadius     int
	PlacesAPIKey     string
	PlacesLanguage   string
	PlacesCacheTTL   time.Duration
	PlacesRateLimit  float64
	PlacesLimitBurst int

	LineChannelSecret      string
	LineChannelAccessToken string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "whatevereat"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		ShutdownTimeout:  15 * time.Second,
		AllowAnyOrigin:   false,

		SessionTTL:     30 * time.Minute,
		HistoryWindow:  5,
		JanitorEnabled: true,

		ResolverMode:     envOrDefault("PLACES_RESOLVER_MODE", "auto"),
		ResolverTimeout:  5 * time.Second,
		SearchRadius:     500,
		PlacesAPIKey:     trimEnv("GOOGLE_MAP_API_TOKEN"),
		PlacesLanguage:   envOrDefault("PLACES_LANGUAGE", "zh-TW"),
		PlacesCacheTTL:   5 * time.Minute,
		PlacesRateLimit:  5,
		PlacesLimitBurst: 10,

		LineChannelSecret:      trimEnv("LINE_CHANNEL_SECRET"),
		LineChannelAccessToken: trimEnv("LINE_CHANNEL_ACCESS_TOKEN"),

		DatabaseURL: trimEnv("DATABASE_URL"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL, err = durationFromEnv("APP_SESSION_TTL", cfg.SessionTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("APP_HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorEnabled, err = boolFromEnv("APP_SESSION_JANITOR", cfg.JanitorEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.ResolverTimeout, err = durationFromEnv("PLACES_RESOLVER_TIMEOUT", cfg.ResolverTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SearchRadius, err = intFromEnv("PLACES_SEARCH_RADIUS", cfg.SearchRadius)
	if err != nil {
		return Config{}, err
	}
	cfg.PlacesCacheTTL, err = durationFromEnv("PLACES_CACHE_TTL", cfg.PlacesCacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.PlacesRateLimit, err = floatFromEnv("PLACES_RATE_LIMIT", cfg.PlacesRateLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.PlacesLimitBurst, err = intFromEnv("PLACES_RATE_BURST", cfg.PlacesLimitBurst)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_SESSION_TTL must be at least 1m")
	}
	if cfg.HistoryWindow < 1 {
		return Config{}, fmt.Errorf("APP_HISTORY_WINDOW must be positive")
	}
	if cfg.SearchRadius <= 0 {
		return Config{}, fmt.Errorf("PLACES_SEARCH_RADIUS must be positive")
	}
	if cfg.ResolverTimeout <= 0 {
		return Config{}, fmt.Errorf("PLACES_RESOLVER_TIMEOUT must be positive")
	}
	if (cfg.LineChannelSecret == "") != (cfg.LineChannelAccessToken == "") {
		return Config{}, fmt.Errorf("LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN must be set together")
	}

	return cfg, nil
}

// LineEnabled reports whether the LINE channel is fully configured.
func (c Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelAccessToken != ""
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
