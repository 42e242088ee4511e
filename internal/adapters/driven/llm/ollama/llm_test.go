package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

func TestChat(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Markets closed higher."},
			Done:    true,
		})
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL, Model: "llama3.2"})
	defer svc.Close()

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "You are a financial analyst."},
		{Role: "user", Content: "How did markets do today?"},
	}, driven.ChatOptions{MaxTokens: 256, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "Markets closed higher.", reply)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	require.NotNil(t, gotReq.Options)
	assert.Equal(t, 256, gotReq.Options.NumPredict)
}

func TestChat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Error: "model not loaded"})
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	defer svc.Close()

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.ErrorContains(t, err, "model not loaded")
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		enc := json.NewEncoder(w)
		enc.Encode(chatResponse{Message: chatMessage{Content: "The "}})
		enc.Encode(chatResponse{Message: chatMessage{Content: "Nifty "}})
		enc.Encode(chatResponse{Message: chatMessage{Content: "rose."}, Done: true})
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	defer svc.Close()

	stream, err := svc.ChatStream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	defer stream.Close()

	var deltas []string
	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		deltas = append(deltas, delta)
	}

	assert.Equal(t, []string{"The ", "Nifty ", "rose."}, deltas)
}

func TestChatStream_FinalElementEmpty(t *testing.T) {
	// Ollama often sends a final done element with no content.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(chatResponse{Message: chatMessage{Content: "done"}})
		enc.Encode(chatResponse{Done: true})
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	defer svc.Close()

	stream, err := svc.ChatStream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	defer stream.Close()

	delta, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "done", delta)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestChatStream_MidStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(chatResponse{Message: chatMessage{Content: "partial"}})
		enc.Encode(chatResponse{Error: "out of memory"})
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	defer svc.Close()

	stream, err := svc.ChatStream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	defer stream.Close()

	delta, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", delta)

	_, err = stream.Recv()
	assert.ErrorContains(t, err, "out of memory")
}

func TestChatStream_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	defer svc.Close()

	_, err := svc.ChatStream(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.ErrorContains(t, err, "status 400")
}
