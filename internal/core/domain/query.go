package domain

// QueryFilter restricts retrieval to chunks from specific sources.
// An empty filter leaves the search unrestricted.
type QueryFilter struct {
	// Sources is the set of allowed source names.
	Sources []string
}

// Empty reports whether the filter imposes no restriction.
func (f QueryFilter) Empty() bool {
	return len(f.Sources) == 0
}

// Allows reports whether a chunk with the given source name passes the filter.
func (f QueryFilter) Allows(sourceName string) bool {
	if f.Empty() {
		return true
	}
	for _, s := range f.Sources {
		if s == sourceName {
			return true
		}
	}
	return false
}

// ChatRequest is one conversational query against the engine.
type ChatRequest struct {
	// Query is the natural-language question.
	Query string

	// SessionID is the caller-supplied conversation identifier. It must be
	// stable across a conversation; an unseen ID starts a fresh session.
	SessionID string

	// Sources optionally restricts retrieval to the named sources.
	Sources []string
}

// Citation points at an article that grounded part of an answer.
type Citation struct {
	Title string
	URL   string
}

// ChatEventType discriminates the events on a query's response stream.
type ChatEventType int

const (
	// EventAnswerDelta carries one increment of answer text.
	EventAnswerDelta ChatEventType = iota

	// EventCitations carries the deduplicated citation list. Emitted at
	// most once, after the answer stream completes.
	EventCitations

	// EventError reports a failure. Any answer deltas already delivered
	// remain valid partial output.
	EventError
)

// ChatEvent is one element of the typed response stream for a query.
type ChatEvent struct {
	Type      ChatEventType
	Delta     string
	Citations []Citation
	Err       error
}

// IndexStats summarises the state of the vector index.
type IndexStats struct {
	// TotalDocuments is the number of stored chunks.
	TotalDocuments int

	// Sources is the sorted set of distinct source names in the index.
	Sources []string
}
