package history

import "context"

// DefaultWindow is the number of recent recommendations kept per user.
const DefaultWindow = 5

// Store tracks, per user, a bounded FIFO window of recently recommended
// venue ids plus a lifetime counter. The window and the counter have
// different reset rules: FIFO eviction rotates ids out of the window but
// never touches the counter; only Clear resets both.
type Store interface {
	// Record appends venueID, evicting the oldest id when the window is
	// full, and returns the incremented lifetime total.
	Record(ctx context.Context, userID, venueID string) (int, error)
	// Recent returns the current window, oldest first.
	Recent(ctx context.Context, userID string) ([]string, error)
	// Count returns the lifetime total, 0 when the user has no history.
	Count(ctx context.Context, userID string) (int, error)
	// Clear resets both the window and the counter. Idempotent.
	Clear(ctx context.Context, userID string) error
	Close() error
}
