package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/tengfone/clockblocker/internal/llm"
	"google.golang.org/genai"
)

// Model represents a Google AI model identifier
type Model string

const (
	ModelGemma3_27B   Model = "gemma-3-27b-it"
	ModelGemini2Flash Model = "gemini-2.0-flash"
)

var (
	DefaultModel  Model = ModelGemma3_27B
	FallbackModel Model = ModelGemini2Flash
)

type Client struct {
	client *genai.Client
}

// NewClient builds a Gemini API client. baseURL overrides the endpoint and
// may be empty.
func NewClient(ctx context.Context, apiKey, baseURL string) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("google API call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from google")
	}

	return llm.StripMarkdownCodeBlocks(result.Candidates[0].Content.Parts[0].Text), nil
}
