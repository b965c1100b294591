package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"whatevereat/internal/geo"
	"whatevereat/internal/history"
	"whatevereat/internal/observability"
	"whatevereat/internal/places"
	"whatevereat/internal/session"
)

// Recommendation is a successful pick plus the metadata the reply needs.
type Recommendation struct {
	Venue Venue
	// Number is the lifetime total after this pick was recorded.
	Number int
	// RotationReset is set when every candidate was already in the
	// history window and the window was cleared to keep serving.
	RotationReset bool
}

// Venue aliases the resolver's venue model; the engine adds no fields.
type Venue = places.Venue

// Status summarizes a user's current state for the status command.
type Status struct {
	HasSession       bool
	Label            string
	Address          string
	RemainingSeconds int
	Count            int
}

// Engine composes the session store, the history store and the candidate
// resolver into the recommendation flow.
type Engine struct {
	sessions session.Store
	history  history.Store
	resolver places.Resolver
	metrics  *observability.Metrics
	logger   *zap.Logger

	radiusMeters    int
	resolverTimeout time.Duration

	now  func() time.Time
	pick func(n int) int

	// userLocks serializes the read-decide-write over a user's history so
	// two concurrent calls cannot both pass the exclusion check and pick
	// the same venue twice.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// Config tunes the engine. Zero values get safe defaults.
type Config struct {
	RadiusMeters    int
	ResolverTimeout time.Duration
}

func New(sessions session.Store, hist history.Store, resolver places.Resolver, metrics *observability.Metrics, cfg Config, logger *zap.Logger) *Engine {
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = 500
	}
	if cfg.ResolverTimeout <= 0 {
		cfg.ResolverTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var rngMu sync.Mutex
	return &Engine{
		sessions:        sessions,
		history:         hist,
		resolver:        resolver,
		metrics:         metrics,
		logger:          logger,
		radiusMeters:    cfg.RadiusMeters,
		resolverTimeout: cfg.ResolverTimeout,
		now:             time.Now,
		pick: func(n int) int {
			rngMu.Lock()
			defer rngMu.Unlock()
			return rng.Intn(n)
		},
		userLocks: make(map[string]*sync.Mutex),
	}
}

// SetNowFunc replaces the clock used for status computation.
func (e *Engine) SetNowFunc(now func() time.Time) { e.now = now }

// SetPickFunc replaces the selection source. pick(n) must return [0, n).
func (e *Engine) SetPickFunc(pick func(n int) int) { e.pick = pick }

// SetLocation validates the coordinate and creates or replaces the user's
// session, resetting its expiry.
func (e *Engine) SetLocation(ctx context.Context, userID string, coord geo.Coordinate, label, address string) error {
	if !coord.Valid() {
		return ErrInvalidCoordinate
	}
	if _, err := e.sessions.Set(ctx, userID, coord, label, address); err != nil {
		return err
	}
	e.logger.Info("location set",
		zap.String("user", userID),
		zap.String("coordinate", coord.String()),
		zap.String("label", label))
	return nil
}

// Recommend picks one venue near the user's remembered location, skipping
// the history window, preferring venues that are open now, and clearing
// the window exactly once when every candidate has already been served.
func (e *Engine) Recommend(ctx context.Context, userID string) (*Recommendation, error) {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}

	candidates, err := e.fetchCandidates(ctx, sess.Coordinate)
	if err != nil {
		return nil, err
	}

	lock := e.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	recent, err := e.history.Recent(ctx, userID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(recent))
	for _, id := range recent {
		excluded[id] = struct{}{}
	}

	eligible := filterExcluded(candidates, excluded)
	rotationReset := false
	if len(eligible) == 0 {
		// Full rotation: every candidate is in the window. Clear it and
		// select from the whole set. Bounded to this single retry; empty
		// candidate sets were already rejected above.
		if err := e.history.Clear(ctx, userID); err != nil {
			return nil, err
		}
		eligible = candidates
		rotationReset = true
		e.logger.Info("history rotation reset", zap.String("user", userID))
	}

	chosen := e.choose(eligible)

	total, err := e.history.Record(ctx, userID, chosen.ID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("venue recommended",
		zap.String("user", userID),
		zap.String("venue", chosen.ID),
		zap.Int("number", total),
		zap.Bool("rotation_reset", rotationReset))

	return &Recommendation{Venue: chosen, Number: total, RotationReset: rotationReset}, nil
}

// Status reports the user's session and history state.
func (e *Engine) Status(ctx context.Context, userID string) (*Status, error) {
	count, err := e.history.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := &Status{Count: count}

	sess, err := e.sessions.Get(ctx, userID)
	if errors.Is(err, session.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	st.HasSession = true
	st.Label = sess.Label
	st.Address = sess.Address
	if remaining := sess.ExpiresAt.Sub(e.now().UTC()); remaining > 0 {
		st.RemainingSeconds = int(remaining / time.Second)
	}
	return st, nil
}

// Clear removes the user's session and history. Idempotent.
func (e *Engine) Clear(ctx context.Context, userID string) error {
	if err := e.sessions.Clear(ctx, userID); err != nil {
		return err
	}
	return e.history.Clear(ctx, userID)
}

func (e *Engine) fetchCandidates(ctx context.Context, coord geo.Coordinate) ([]Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, e.resolverTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := e.resolver.Nearby(ctx, coord, e.radiusMeters)
	if e.metrics != nil {
		e.metrics.ObserveResolverLatency(time.Since(start))
	}
	if err != nil {
		cause := CauseResolverError
		if errors.Is(err, context.DeadlineExceeded) {
			cause = CauseResolverTimeout
		}
		return nil, &NoCandidatesError{Cause: cause, Err: err}
	}
	if len(candidates) == 0 {
		return nil, &NoCandidatesError{Cause: CauseEmptyResult}
	}
	return candidates, nil
}

// choose prefers venues confirmed open; closed and unknown venues are only
// drawn when no eligible venue is known to be open.
func (e *Engine) choose(eligible []Venue) Venue {
	open := make([]Venue, 0, len(eligible))
	for _, v := range eligible {
		if v.Open == places.OpenStateOpen {
			open = append(open, v)
		}
	}
	pool := eligible
	if len(open) > 0 {
		pool = open
	}
	return pool[e.pick(len(pool))]
}

func (e *Engine) lockFor(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

func filterExcluded(candidates []Venue, excluded map[string]struct{}) []Venue {
	out := make([]Venue, 0, len(candidates))
	for _, v := range candidates {
		if _, skip := excluded[v.ID]; skip {
			continue
		}
		out = append(out, v)
	}
	return out
}
