package places

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"whatevereat/internal/geo"
)

// CachedResolver decorates a provider with a short-lived result cache, a
// per-key in-flight dedupe, an outbound rate limit and a circuit breaker.
// Identical lookups from a burst of taps hit the provider once; a broken
// provider fails fast instead of queueing webhook handlers behind it.
type CachedResolver struct {
	inner   Resolver
	cache   *gocache.Cache
	group   singleflight.Group
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]Venue]
	logger  *zap.Logger
}

// CachedConfig tunes the decorator. Zero values get safe defaults.
type CachedConfig struct {
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
}

func NewCachedResolver(inner Resolver, cfg CachedConfig, logger *zap.Logger) *CachedResolver {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker[[]Venue](gobreaker.Settings{
		Name:    "places",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("places breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &CachedResolver{
		inner:   inner,
		cache:   gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

func (r *CachedResolver) Nearby(ctx context.Context, coord geo.Coordinate, radiusMeters int) ([]Venue, error) {
	key := cellKey(coord, radiusMeters)
	if cached, found := r.cache.Get(key); found {
		return cached.([]Venue), nil
	}

	result, err, _ := r.group.Do(key, func() (any, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		venues, err := r.breaker.Execute(func() ([]Venue, error) {
			return r.inner.Nearby(ctx, coord, radiusMeters)
		})
		if err != nil {
			return nil, err
		}
		r.cache.Set(key, venues, gocache.DefaultExpiration)
		return venues, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Venue), nil
}

// cellKey snaps the coordinate to roughly a city-block grid so nearby
// repeat requests share a cache entry.
func cellKey(coord geo.Coordinate, radiusMeters int) string {
	return fmt.Sprintf("%.3f:%.3f:%d", coord.Latitude, coord.Longitude, radiusMeters)
}
