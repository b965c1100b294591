package places

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config controls resolver construction.
type Config struct {
	Mode              string
	APIKey            string
	Language          string
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewResolver builds a resolver by mode. "auto" picks Google when an API
// key is configured and falls back to the mock fixture otherwise, so the
// bot always starts.
func NewResolver(cfg Config, logger *zap.Logger) (Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) == "" {
			logger.Info("places resolver: mock (no API key configured)")
			return NewMockResolver(), nil
		}
		return newCachedGoogle(cfg, logger), nil
	case "google":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("places API key is required for google mode")
		}
		return newCachedGoogle(cfg, logger), nil
	case "mock":
		return NewMockResolver(), nil
	default:
		return nil, fmt.Errorf("unsupported places resolver mode %q", cfg.Mode)
	}
}

func newCachedGoogle(cfg Config, logger *zap.Logger) Resolver {
	logger.Info("places resolver: google", zap.String("language", cfg.Language))
	return NewCachedResolver(NewGoogleResolver(cfg.APIKey, cfg.Language), CachedConfig{
		CacheTTL:          cfg.CacheTTL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}, logger)
}
