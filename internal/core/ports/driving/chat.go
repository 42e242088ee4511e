package driving

import (
	"context"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// ChatEngine answers conversational queries over the indexed corpus.
type ChatEngine interface {
	// StreamQuery starts one retrieval-augmented generation turn and
	// returns its event stream. The channel delivers answer deltas as
	// they are produced, then at most one citations event, and is closed
	// when the turn finishes. A mid-stream failure is reported as an
	// error event after any partial output. Cancelling ctx terminates
	// generation and closes the stream.
	StreamQuery(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, error)

	// Stats reports vector index statistics for status display. A cold
	// or missing index yields a zero-valued result, not an error.
	Stats(ctx context.Context) domain.IndexStats
}
