package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionmem "github.com/finsight-labs/finsight-cli/internal/adapters/driven/session/memory"
	indexmem "github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/memory"
	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// fakeLLM scripts a streamed reply and records the requests it saw.
type fakeLLM struct {
	deltas    []string
	failAfter int // fail after this many deltas; -1 disables
	requests  [][]driven.ChatMessage
}

func newFakeLLM(deltas ...string) *fakeLLM {
	return &fakeLLM{deltas: deltas, failAfter: -1}
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	f.requests = append(f.requests, messages)
	return strings.Join(f.deltas, ""), nil
}

func (f *fakeLLM) ChatStream(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (driven.ChatStream, error) {
	f.requests = append(f.requests, messages)
	return &fakeStream{deltas: f.deltas, failAfter: f.failAfter}, nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

type fakeStream struct {
	deltas    []string
	failAfter int
	pos       int
}

func (f *fakeStream) Recv() (string, error) {
	if f.failAfter >= 0 && f.pos >= f.failAfter {
		return "", errors.New("stream interrupted")
	}
	if f.pos >= len(f.deltas) {
		return "", io.EOF
	}
	delta := f.deltas[f.pos]
	f.pos++
	return delta, nil
}

func (f *fakeStream) Close() error { return nil }

// brokenIndex fails every operation.
type brokenIndex struct{}

func (brokenIndex) Upsert(context.Context, []domain.DocumentChunk) error { return domain.ErrIndexUnavailable }
func (brokenIndex) Search(context.Context, []float32, int, domain.QueryFilter) ([]driven.VectorHit, error) {
	return nil, domain.ErrIndexUnavailable
}
func (brokenIndex) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, domain.ErrIndexUnavailable
}
func (brokenIndex) Close() error { return nil }

func indexWith(t *testing.T, chunks ...domain.DocumentChunk) *indexmem.Index {
	t.Helper()
	index := indexmem.NewIndex()
	require.NoError(t, index.Upsert(context.Background(), chunks))
	return index
}

func indexedChunk(id, articleURL, title, source string) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:         id,
		ArticleURL: articleURL,
		Content:    "content of " + id,
		Embedding:  []float32{1, 0},
		Metadata: map[string]string{
			domain.MetaTitle:  title,
			domain.MetaSource: source,
			domain.MetaURL:    articleURL,
		},
	}
}

func collect(t *testing.T, events <-chan domain.ChatEvent) []domain.ChatEvent {
	t.Helper()
	var out []domain.ChatEvent
	for event := range events {
		out = append(out, event)
	}
	return out
}

func TestStreamQuery_DeltasThenCitations(t *testing.T) {
	gold := indexedChunk("c3", "http://b.com/1", "Gold surges", "economic_times")
	gold.Embedding = []float32{0.5, 0.5} // ranks below the RBI chunks
	index := indexWith(t,
		indexedChunk("c1", "http://a.com/1", "RBI cuts rates", "moneycontrol"),
		indexedChunk("c2", "http://a.com/1", "RBI cuts rates", "moneycontrol"),
		gold,
	)
	sessions := sessionmem.NewStore()
	llm := newFakeLLM("The RBI ", "cut rates.")
	svc := NewChatService(&fakeEmbedder{}, llm, index, sessions)

	events, err := svc.StreamQuery(context.Background(), domain.ChatRequest{
		Query:     "What did the RBI do?",
		SessionID: "s1",
	})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 3)
	assert.Equal(t, domain.EventAnswerDelta, got[0].Type)
	assert.Equal(t, "The RBI ", got[0].Delta)
	assert.Equal(t, "cut rates.", got[1].Delta)

	// Two chunks of the same article collapse into one citation.
	require.Equal(t, domain.EventCitations, got[2].Type)
	require.Len(t, got[2].Citations, 2)
	assert.Equal(t, "RBI cuts rates", got[2].Citations[0].Title)
	assert.Equal(t, "http://a.com/1", got[2].Citations[0].URL)
	assert.Equal(t, "http://b.com/1", got[2].Citations[1].URL)

	history := sessions.History("s1")
	require.Len(t, history, 1)
	assert.Equal(t, "The RBI cut rates.", history[0].Answer)
}

func TestStreamQuery_SourceFilter(t *testing.T) {
	index := indexWith(t,
		indexedChunk("c1", "http://a.com/1", "MC article", "moneycontrol"),
		indexedChunk("c2", "http://b.com/1", "ET article", "economic_times"),
	)
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM("answer"), index, sessionmem.NewStore())

	events, err := svc.StreamQuery(context.Background(), domain.ChatRequest{
		Query:     "anything",
		SessionID: "s1",
		Sources:   []string{"moneycontrol"},
	})
	require.NoError(t, err)

	got := collect(t, events)
	citations := got[len(got)-1]
	require.Equal(t, domain.EventCitations, citations.Type)
	require.Len(t, citations.Citations, 1)
	assert.Equal(t, "http://a.com/1", citations.Citations[0].URL)
}

func TestStreamQuery_EmptyIndexNoCitations(t *testing.T) {
	sessions := sessionmem.NewStore()
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM("I do not have information on that."),
		indexmem.NewIndex(), sessions)

	events, err := svc.StreamQuery(context.Background(), domain.ChatRequest{
		Query:     "What happened?",
		SessionID: "s1",
	})
	require.NoError(t, err)

	got := collect(t, events)
	for _, event := range got {
		assert.NotEqual(t, domain.EventCitations, event.Type)
		assert.NotEqual(t, domain.EventError, event.Type)
	}
	assert.Len(t, sessions.History("s1"), 1)
}

func TestStreamQuery_SequentialTurnsCarryMemory(t *testing.T) {
	index := indexWith(t, indexedChunk("c1", "http://a.com/1", "RBI cuts rates", "moneycontrol"))
	sessions := sessionmem.NewStore()
	llm := newFakeLLM("answer")
	svc := NewChatService(&fakeEmbedder{}, llm, index, sessions)
	ctx := context.Background()

	events, err := svc.StreamQuery(ctx, domain.ChatRequest{Query: "first question", SessionID: "s1"})
	require.NoError(t, err)
	collect(t, events)

	events, err = svc.StreamQuery(ctx, domain.ChatRequest{Query: "second question", SessionID: "s1"})
	require.NoError(t, err)
	collect(t, events)

	require.Len(t, sessions.History("s1"), 2)

	// The second request carries the first turn as user/assistant messages.
	require.Len(t, llm.requests, 2)
	second := llm.requests[1]
	require.Len(t, second, 4)
	assert.Equal(t, "system", second[0].Role)
	assert.Equal(t, "first question", second[1].Content)
	assert.Equal(t, "assistant", second[2].Role)
	assert.Equal(t, "answer", second[2].Content)
	assert.Contains(t, second[3].Content, "second question")
}

func TestStreamQuery_SessionsAreIsolated(t *testing.T) {
	sessions := sessionmem.NewStore()
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM("answer"), indexmem.NewIndex(), sessions)
	ctx := context.Background()

	events, err := svc.StreamQuery(ctx, domain.ChatRequest{Query: "q1", SessionID: "s1"})
	require.NoError(t, err)
	collect(t, events)

	events, err = svc.StreamQuery(ctx, domain.ChatRequest{Query: "q2", SessionID: "s2"})
	require.NoError(t, err)
	collect(t, events)

	assert.Len(t, sessions.History("s1"), 1)
	assert.Len(t, sessions.History("s2"), 1)
}

func TestStreamQuery_MidStreamFailure(t *testing.T) {
	index := indexWith(t, indexedChunk("c1", "http://a.com/1", "Title", "moneycontrol"))
	sessions := sessionmem.NewStore()
	llm := newFakeLLM("partial ", "answer")
	llm.failAfter = 1
	svc := NewChatService(&fakeEmbedder{}, llm, index, sessions)

	events, err := svc.StreamQuery(context.Background(), domain.ChatRequest{
		Query:     "question",
		SessionID: "s1",
	})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, domain.EventAnswerDelta, got[0].Type)
	assert.Equal(t, "partial ", got[0].Delta)
	require.Equal(t, domain.EventError, got[1].Type)
	assert.ErrorIs(t, got[1].Err, domain.ErrGeneration)

	// The partial answer the user saw is committed to memory.
	history := sessions.History("s1")
	require.Len(t, history, 1)
	assert.Equal(t, "partial ", history[0].Answer)
}

func TestStreamQuery_InvalidRequests(t *testing.T) {
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM(), indexmem.NewIndex(), sessionmem.NewStore())
	ctx := context.Background()

	_, err := svc.StreamQuery(ctx, domain.ChatRequest{Query: "  ", SessionID: "s1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.StreamQuery(ctx, domain.ChatRequest{Query: "question"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStreamQuery_SearchFailure(t *testing.T) {
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM(), brokenIndex{}, sessionmem.NewStore())

	events, err := svc.StreamQuery(context.Background(), domain.ChatRequest{
		Query:     "question",
		SessionID: "s1",
	})
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	require.Equal(t, domain.EventError, got[0].Type)
	assert.ErrorIs(t, got[0].Err, domain.ErrIndexUnavailable)
}

func TestStats(t *testing.T) {
	index := indexWith(t, indexedChunk("c1", "http://a.com/1", "Title", "moneycontrol"))
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM(), index, sessionmem.NewStore())

	stats := svc.Stats(context.Background())
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, []string{"moneycontrol"}, stats.Sources)
}

func TestStats_ZeroOnError(t *testing.T) {
	svc := NewChatService(&fakeEmbedder{}, newFakeLLM(), brokenIndex{}, sessionmem.NewStore())

	stats := svc.Stats(context.Background())
	assert.Zero(t, stats.TotalDocuments)
	assert.Empty(t, stats.Sources)
}
