package driven

import "context"

// LLMService provides generative language model operations.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a multi-turn conversation and returns the full reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ChatStream conducts a multi-turn conversation, delivering the reply
	// incrementally. The returned stream yields text deltas until io.EOF.
	// Cancelling ctx terminates generation.
	ChatStream(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatStream, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatStream is an incremental token stream from a generation request.
type ChatStream interface {
	// Recv returns the next text delta. It returns io.EOF when the
	// stream has completed normally, or another error on mid-stream
	// failure. After a non-nil error the stream is exhausted.
	Recv() (string, error)

	// Close releases the underlying connection. Safe to call after Recv
	// has returned an error.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
