package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsFirstTextBlock(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), "unexpected path %q", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "It is probably teatime."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 4, "output_tokens": 6}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	text, err := c.Complete(context.Background(), string(DefaultModel), "guess the time")
	require.NoError(t, err)
	assert.Equal(t, "It is probably teatime.", text)

	assert.Equal(t, string(DefaultModel), body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestCompleteFailsWithoutTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 4, "output_tokens": 0}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.Complete(context.Background(), string(DefaultModel), "guess the time")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestCompleteWrapsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.Complete(context.Background(), "nope", "guess the time")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic API call failed")
}
