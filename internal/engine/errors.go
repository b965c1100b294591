package engine

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession means the user has not shared a location within the
// session window. The caller should prompt for a fresh location share.
var ErrNoActiveSession = errors.New("no active session")

// ErrInvalidCoordinate rejects out-of-range coordinates at the
// session-set boundary. Nothing is stored.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// NoCandidatesCause distinguishes why no candidates were available, so the
// caller can phrase guidance ("try another spot" vs "service trouble").
type NoCandidatesCause string

const (
	CauseResolverTimeout NoCandidatesCause = "resolver_timeout"
	CauseResolverError   NoCandidatesCause = "resolver_error"
	CauseEmptyResult     NoCandidatesCause = "empty_result"
)

// NoCandidatesError reports a failed or empty candidate lookup. It is
// terminal for the call; the engine never retries the resolver.
type NoCandidatesError struct {
	Cause NoCandidatesCause
	Err   error
}

func (e *NoCandidatesError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no candidates found (%s): %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("no candidates found (%s)", e.Cause)
}

func (e *NoCandidatesError) Unwrap() error { return e.Err }
