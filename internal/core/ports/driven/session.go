package driven

import "github.com/finsight-labs/finsight-cli/internal/core/domain"

// SessionStore holds per-session dialogue memory for the process lifetime.
//
// The store is shared mutable state: entries are created lazily on first
// use of a session ID and the check-then-create step is atomic. Turns for
// one session are appended in completion order; the engine serialises
// whole queries per session via Lock.
type SessionStore interface {
	// History returns a copy of the session's turns in order, creating
	// the session if it does not exist yet.
	History(sessionID string) []domain.Turn

	// Append records a completed turn for the session, creating the
	// session if it does not exist yet.
	Append(sessionID string, turn domain.Turn)

	// Lock acquires the session's exclusive lock, creating the session
	// if needed, and returns the unlock function. Concurrent queries on
	// the same session ID serialise here; distinct sessions do not block
	// each other.
	Lock(sessionID string) (unlock func())
}
