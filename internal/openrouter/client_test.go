package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
  "id": "gen-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "deepseek/deepseek-chat:free",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Time is an illusion."}}
  ],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestCompleteSendsChatCompletionRequest(t *testing.T) {
	var got chatRequest
	var headers http.Header
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	c := NewClient("sk-or-test", srv.URL+"/api/v1")
	text, err := c.Complete(context.Background(), DefaultModel, "what is time?")
	require.NoError(t, err)

	assert.Equal(t, "Time is an illusion.", text)
	assert.True(t, strings.HasSuffix(path, "/chat/completions"), "unexpected path %q", path)
	assert.Equal(t, "Bearer sk-or-test", headers.Get("Authorization"))
	assert.Equal(t, Referer, headers.Get("HTTP-Referer"))
	assert.Contains(t, headers.Get("Content-Type"), "application/json")

	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "what is time?", got.Messages[0].Content)
}

func TestCompleteFailsOnServerErrorWithoutRetrying(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","code":503}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-or-test", srv.URL)
	_, err := c.Complete(context.Background(), DefaultModel, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openrouter API call failed")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteFailsOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-2","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-or-test", srv.URL)
	_, err := c.Complete(context.Background(), FallbackModel, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
