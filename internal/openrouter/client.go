package openrouter

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tengfone/clockblocker/internal/llm"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	Referer        = "https://github.com/tengfone/clockblocker"

	DefaultModel  = "deepseek/deepseek-chat:free"
	FallbackModel = "deepseek/deepseek-chat"
)

// Client talks to OpenRouter's OpenAI-compatible chat completions endpoint.
type Client struct {
	client openai.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithHeader("HTTP-Referer", Referer),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(llm.RequestTimeout),
		),
	}
}

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in openrouter response")
	}

	return llm.StripMarkdownCodeBlocks(completion.Choices[0].Message.Content), nil
}
