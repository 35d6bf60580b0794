package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tengfone/clockblocker/internal/anthropic"
	"github.com/tengfone/clockblocker/internal/openrouter"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, ok := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	if ok {
		t.Cleanup(func() { _ = os.Setenv(key, old) })
	}
}

func TestParseConfig(t *testing.T) {
	for _, key := range []string{"PLATFORM", "TELEGRAM_TOKEN", "DISCORD_TOKEN", "LLM_PROVIDER", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "MODEL", "FALLBACK_MODEL"} {
		unsetEnv(t, key)
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseConfig([]string{"--telegram-token", "tg", "--openrouter-api-key", "or"})
		require.NoError(t, err)

		assert.Equal(t, "telegram", cfg.platform)
		assert.Equal(t, "openrouter", cfg.llmProvider)
		assert.Equal(t, openrouter.DefaultBaseURL, cfg.openRouterURL)
		assert.Equal(t, openrouter.DefaultModel, cfg.model)
		assert.Equal(t, openrouter.FallbackModel, cfg.fallbackModel)
		assert.Equal(t, 30*time.Minute, cfg.cacheTTL)
		assert.Equal(t, time.Minute, cfg.rateLimitWindow)
		assert.Equal(t, 2, cfg.rateLimitMax)
		assert.Equal(t, 3*time.Minute, cfg.handlerTimeout)
		assert.Equal(t, ":9090", cfg.httpAddr)
		assert.Equal(t, "pretty", cfg.logFormat)
		assert.Equal(t, "info", cfg.logLevel)
	})

	t.Run("discord with anthropic", func(t *testing.T) {
		cfg, err := parseConfig([]string{
			"--platform", "discord",
			"--discord-token", "dc",
			"--discord-guild-id", "42",
			"--llm-provider", "anthropic",
			"--anthropic-api-key", "sk",
		})
		require.NoError(t, err)

		assert.Equal(t, "discord", cfg.platform)
		assert.Equal(t, "42", cfg.discordGuildID)
		assert.Equal(t, string(anthropic.DefaultModel), cfg.model)
		assert.Equal(t, string(anthropic.FallbackModel), cfg.fallbackModel)
	})

	t.Run("explicit models override provider defaults", func(t *testing.T) {
		cfg, err := parseConfig([]string{
			"--telegram-token", "tg",
			"--openrouter-api-key", "or",
			"--model", "meta-llama/llama-3.3-70b-instruct:free",
			"--fallback-model", "meta-llama/llama-3.3-70b-instruct",
		})
		require.NoError(t, err)
		assert.Equal(t, "meta-llama/llama-3.3-70b-instruct:free", cfg.model)
		assert.Equal(t, "meta-llama/llama-3.3-70b-instruct", cfg.fallbackModel)
	})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing telegram token",
			args:    []string{"--openrouter-api-key", "or"},
			wantErr: "telegram-token is required",
		},
		{
			name:    "missing discord token",
			args:    []string{"--platform", "discord", "--openrouter-api-key", "or"},
			wantErr: "discord-token is required",
		},
		{
			name:    "missing openrouter key",
			args:    []string{"--telegram-token", "tg"},
			wantErr: "openrouter-api-key is required",
		},
		{
			name:    "missing google key",
			args:    []string{"--telegram-token", "tg", "--llm-provider", "google"},
			wantErr: "google-api-key is required",
		},
		{
			name:    "non positive rate limit",
			args:    []string{"--telegram-token", "tg", "--openrouter-api-key", "or", "--rate-limit-max", "0"},
			wantErr: "rate-limit-max must be positive",
		},
		{
			name:    "unknown platform",
			args:    []string{"--platform", "slack"},
			wantErr: "parsing flags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
