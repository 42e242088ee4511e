package domain

import "time"

// Turn is one completed question/answer exchange within a session.
type Turn struct {
	// Question is the user's query as submitted.
	Question string

	// Answer is the full answer text the engine produced.
	Answer string

	// AskedAt is when the turn was committed.
	AskedAt time.Time
}
