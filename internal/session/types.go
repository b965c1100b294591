package session

import (
	"context"
	"errors"
	"time"

	"whatevereat/internal/geo"
)

// ErrNotFound is returned when a user has no live session. An expired
// session is indistinguishable from a missing one.
var ErrNotFound = errors.New("session not found")

// UserSession is a user's remembered location, valid until ExpiresAt.
// Label and Address are set when the location is shared and never change.
type UserSession struct {
	UserID     string         `json:"user_id"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Label      string         `json:"label"`
	Address    string         `json:"address"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Store keeps at most one live session per user. Operations on the same
// user are linearizable; operations on different users do not block each
// other.
type Store interface {
	// Set creates or replaces the user's session and resets its expiry.
	Set(ctx context.Context, userID string, coord geo.Coordinate, label, address string) (*UserSession, error)
	// Get returns the session only while it has not expired.
	Get(ctx context.Context, userID string) (*UserSession, error)
	// Clear removes the session unconditionally. Idempotent.
	Clear(ctx context.Context, userID string) error
	// ActiveCount reports the number of unexpired sessions.
	ActiveCount(ctx context.Context) (int, error)
	Close() error
}
