// Package memory provides the in-process session store. Dialogue memory
// lives for the process lifetime; nothing is persisted.
package memory

import (
	"sync"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

var _ driven.SessionStore = (*Store)(nil)

// session holds one conversation's turns and its query lock.
type session struct {
	mu    sync.Mutex // serialises whole queries, held across I/O
	turns []domain.Turn
}

// Store is a thread-safe in-memory session store.
type Store struct {
	mu       sync.Mutex // guards the sessions map and turn slices
	sessions map[string]*session
	maxTurns int
}

// Option configures the store.
type Option func(*Store)

// WithMaxTurns caps the number of retained turns per session. Once the
// cap is reached the oldest turn is dropped on each append. Zero means
// unbounded.
func WithMaxTurns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// get returns the session, creating it atomically on first use.
func (s *Store) get(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// History returns a copy of the session's turns in order.
func (s *Store) History(sessionID string) []domain.Turn {
	sess := s.get(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]domain.Turn, len(sess.turns))
	copy(turns, sess.turns)
	return turns
}

// Append records a completed turn for the session.
func (s *Store) Append(sessionID string, turn domain.Turn) {
	sess := s.get(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess.turns = append(sess.turns, turn)
	if s.maxTurns > 0 && len(sess.turns) > s.maxTurns {
		sess.turns = sess.turns[len(sess.turns)-s.maxTurns:]
	}
}

// Lock acquires the session's exclusive lock and returns the unlock
// function. Distinct sessions do not block each other.
func (s *Store) Lock(sessionID string) func() {
	sess := s.get(sessionID)
	sess.mu.Lock()
	return sess.mu.Unlock
}
