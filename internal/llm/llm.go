package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tengfone/clockblocker/internal/metrics"
)

// FallbackText is returned when every model failed.
const FallbackText = "My temporal consciousness seems to be malfunctioning... 🤖"

const RequestTimeout = 30 * time.Second

// Completer sends a single user prompt to one model of a provider.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Generator asks the primary model first and the fallback model once if that
// fails. It never returns an error.
type Generator struct {
	log       *slog.Logger
	completer Completer
	models    []string
	timeout   time.Duration
}

func NewGenerator(log *slog.Logger, completer Completer, primary, fallback string) *Generator {
	models := []string{primary}
	if fallback != "" && fallback != primary {
		models = append(models, fallback)
	}
	return &Generator{
		log:       log,
		completer: completer,
		models:    models,
		timeout:   RequestTimeout,
	}
}

// Models lists the models tried, in order.
func (g *Generator) Models() []string {
	return g.models
}

func (g *Generator) Generate(ctx context.Context, prompt string) string {
	for _, model := range g.models {
		text, err := g.attempt(ctx, model, prompt)
		if err == nil {
			return text
		}
		g.log.WarnContext(ctx, "llm completion failed", "model", model, "error", err)
	}
	metrics.LLMFallbacksTotal.Inc()
	return FallbackText
}

func (g *Generator) attempt(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.completer.Complete(ctx, model, prompt)
	metrics.LLMDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	text = StripMarkdownCodeBlocks(text)
	if err == nil && text == "" {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(model, "error").Inc()
		return "", err
	}
	metrics.LLMCallsTotal.WithLabelValues(model, "success").Inc()
	return text, nil
}

// StripMarkdownCodeBlocks removes ```...``` wrappers from LLM responses
func StripMarkdownCodeBlocks(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
