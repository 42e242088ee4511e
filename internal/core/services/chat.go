package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// DefaultTopK is the default number of chunks retrieved per query.
const DefaultTopK = 5

// systemPrompt instructs the model to answer strictly from the
// retrieved context and to admit when it is insufficient.
const systemPrompt = `You are a financial analyst assistant answering questions about financial news.

Answer using ONLY the information in the provided context. Do not draw on outside knowledge. If the context does not contain enough information to answer the question, say so plainly instead of guessing. Keep answers factual and concise, and mention specific figures, companies and dates from the context where relevant.`

var _ driving.ChatEngine = (*ChatService)(nil)

// ChatService answers conversational queries over the indexed corpus.
type ChatService struct {
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	index       driven.VectorIndex
	sessions    driven.SessionStore
	topK        int
	maxTokens   int
	temperature float64
	now         func() time.Time
}

// ChatOption configures the chat service.
type ChatOption func(*ChatService)

// WithTopK sets how many chunks are retrieved per query.
func WithTopK(k int) ChatOption {
	return func(s *ChatService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithGeneration sets the generation parameters passed to the LLM.
func WithGeneration(maxTokens int, temperature float64) ChatOption {
	return func(s *ChatService) {
		s.maxTokens = maxTokens
		s.temperature = temperature
	}
}

// WithChatClock overrides the clock, for tests.
func WithChatClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		s.now = now
	}
}

// NewChatService creates the conversational retrieval engine.
func NewChatService(
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	index driven.VectorIndex,
	sessions driven.SessionStore,
	opts ...ChatOption,
) *ChatService {
	s := &ChatService{
		embedder: embedder,
		llm:      llm,
		index:    index,
		sessions: sessions,
		topK:     DefaultTopK,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StreamQuery starts one retrieval-augmented generation turn. Events
// arrive on the returned channel: answer deltas in order, then at most
// one citations event. The channel closes when the turn finishes.
func (s *ChatService) StreamQuery(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session ID", domain.ErrInvalidInput)
	}

	events := make(chan domain.ChatEvent)
	go s.runQuery(ctx, req, events)
	return events, nil
}

// runQuery executes the turn and closes the event channel when done.
// The session lock is held for the whole turn so concurrent queries on
// one session serialise and each sees the previous turn's memory.
func (s *ChatService) runQuery(ctx context.Context, req domain.ChatRequest, events chan<- domain.ChatEvent) {
	defer close(events)

	unlock := s.sessions.Lock(req.SessionID)
	defer unlock()

	queryVector, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		s.emit(ctx, events, domain.ChatEvent{Type: domain.EventError,
			Err: fmt.Errorf("embedding query: %w", err)})
		return
	}

	filter := domain.QueryFilter{Sources: req.Sources}
	hits, err := s.index.Search(ctx, queryVector, s.topK, filter)
	if err != nil {
		s.emit(ctx, events, domain.ChatEvent{Type: domain.EventError,
			Err: fmt.Errorf("searching index: %w", err)})
		return
	}
	logger.Debug("retrieved %d chunks for session %s", len(hits), req.SessionID)

	history := s.sessions.History(req.SessionID)
	messages := s.buildMessages(req.Query, history, hits)

	stream, err := s.llm.ChatStream(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		s.emit(ctx, events, domain.ChatEvent{Type: domain.EventError,
			Err: fmt.Errorf("%w: %w", domain.ErrGeneration, err)})
		return
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Partial output already delivered remains valid; commit it
			// to memory so the next turn sees what the user saw.
			if answer.Len() > 0 {
				s.sessions.Append(req.SessionID, domain.Turn{
					Question: req.Query,
					Answer:   answer.String(),
					AskedAt:  s.now(),
				})
			}
			s.emit(ctx, events, domain.ChatEvent{Type: domain.EventError,
				Err: fmt.Errorf("%w: %w", domain.ErrGeneration, err)})
			return
		}

		answer.WriteString(delta)
		if !s.emit(ctx, events, domain.ChatEvent{Type: domain.EventAnswerDelta, Delta: delta}) {
			return
		}
	}

	if citations := collectCitations(hits); len(citations) > 0 {
		if !s.emit(ctx, events, domain.ChatEvent{Type: domain.EventCitations, Citations: citations}) {
			return
		}
	}

	s.sessions.Append(req.SessionID, domain.Turn{
		Question: req.Query,
		Answer:   answer.String(),
		AskedAt:  s.now(),
	})
}

// emit sends an event unless the context is done. Reports whether the
// turn should continue.
func (s *ChatService) emit(ctx context.Context, events chan<- domain.ChatEvent, event domain.ChatEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildMessages assembles the chat transcript: system prompt, prior
// turns, then the current question with its retrieved context block.
func (s *ChatService) buildMessages(query string, history []domain.Turn, hits []driven.VectorHit) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: "system", Content: systemPrompt})

	for _, turn := range history {
		messages = append(messages,
			driven.ChatMessage{Role: "user", Content: turn.Question},
			driven.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}

	messages = append(messages, driven.ChatMessage{Role: "user", Content: promptWithContext(query, hits)})
	return messages
}

// promptWithContext renders the retrieved chunks ahead of the question.
func promptWithContext(query string, hits []driven.VectorHit) string {
	if len(hits) == 0 {
		return "No relevant articles were found in the index.\n\nQuestion: " + query
	}

	var b strings.Builder
	b.WriteString("Context from indexed financial news:\n\n")
	for _, hit := range hits {
		meta := hit.Chunk.Metadata
		fmt.Fprintf(&b, "[Source: %s | %s | %s]\n%s\n\n",
			meta[domain.MetaSource], meta[domain.MetaTitle], meta[domain.MetaPublishDate],
			hit.Chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// collectCitations deduplicates hits by article URL, first seen wins,
// preserving rank order.
func collectCitations(hits []driven.VectorHit) []domain.Citation {
	var citations []domain.Citation
	seen := make(map[string]bool)
	for _, hit := range hits {
		url := hit.Chunk.Metadata[domain.MetaURL]
		if url == "" || url == domain.MetaMissing || seen[url] {
			continue
		}
		seen[url] = true
		citations = append(citations, domain.Citation{
			Title: hit.Chunk.Metadata[domain.MetaTitle],
			URL:   url,
		})
	}
	return citations
}

// Stats reports vector index statistics. A cold or missing index is a
// zero-valued result, not an error.
func (s *ChatService) Stats(ctx context.Context) domain.IndexStats {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		logger.Warn("reading index stats: %v", err)
		return domain.IndexStats{}
	}
	return stats
}
