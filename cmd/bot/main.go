package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/tengfone/clockblocker/internal/anthropic"
	"github.com/tengfone/clockblocker/internal/bot"
	"github.com/tengfone/clockblocker/internal/cache"
	"github.com/tengfone/clockblocker/internal/google"
	"github.com/tengfone/clockblocker/internal/health"
	"github.com/tengfone/clockblocker/internal/llm"
	"github.com/tengfone/clockblocker/internal/logger"
	"github.com/tengfone/clockblocker/internal/openrouter"
	"github.com/tengfone/clockblocker/internal/ratelimit"
	"github.com/tengfone/clockblocker/internal/reveal"
	"golang.org/x/sync/errgroup"
)

const (
	providerOpenRouter = "openrouter"
	providerAnthropic  = "anthropic"
	providerGoogle     = "google"
)

type config struct {
	platform         string
	telegramToken    string
	discordToken     string
	discordGuildID   string
	llmProvider      string
	openRouterAPIKey string
	openRouterURL    string
	anthropicAPIKey  string
	googleAPIKey     string
	model            string
	fallbackModel    string
	cacheTTL         time.Duration
	rateLimitWindow  time.Duration
	rateLimitMax     int
	handlerTimeout   time.Duration
	httpAddr         string
	logFormat        string
	logLevel         string
}

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// runner is one chat platform front end.
type runner interface {
	Run(ctx context.Context) error
}

func mainE() error {
	_ = godotenv.Load()

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	log := logger.New(os.Stdout, cfg.logFormat, cfg.logLevel)

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	generator := llm.NewGenerator(log, completer, cfg.model, cfg.fallbackModel)
	log.InfoContext(ctx, "llm client initialized", "provider", cfg.llmProvider, "models", generator.Models())

	responses := cache.New(cfg.cacheTTL, nil)
	limiter := ratelimit.New(cfg.rateLimitMax, cfg.rateLimitWindow, nil)
	sequence := reveal.New(responses, generator, nil)
	b := bot.New(bot.NewLogger(log), limiter, sequence, bot.Config{
		HandlerTimeout: cfg.handlerTimeout,
		DiscordGuildID: cfg.discordGuildID,
	})

	front, err := newRunner(cfg, b)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down", "signal", sig)
		cancel(errors.New("signal received"))
	}()

	healthServer := health.New(cfg.httpAddr, cfg.platform)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting health server", "addr", cfg.httpAddr)
		return healthServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return healthServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer cancel(errors.New("bot stopped"))
		log.InfoContext(gctx, "starting bot", "platform", cfg.platform)
		return front.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("exiting without error", "cause", context.Cause(ctx))
	return nil
}

func parseConfig(args []string) (config, error) {
	fs := ff.NewFlagSet("clockblocker")
	var (
		platform         = fs.StringEnumLong("platform", "Chat platform to serve", bot.PlatformTelegram, bot.PlatformDiscord)
		telegramToken    = fs.StringLong("telegram-token", "", "Telegram bot token")
		discordToken     = fs.StringLong("discord-token", "", "Discord bot token")
		discordGuildID   = fs.StringLong("discord-guild-id", "", "Register Discord commands to this guild only")
		llmProvider      = fs.StringEnumLong("llm-provider", "LLM provider for the philosophical musings", providerOpenRouter, providerAnthropic, providerGoogle)
		openRouterAPIKey = fs.StringLong("openrouter-api-key", "", "OpenRouter API key")
		openRouterURL    = fs.StringLong("openrouter-base-url", openrouter.DefaultBaseURL, "OpenRouter API base URL")
		anthropicAPIKey  = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleAPIKey     = fs.StringLong("google-api-key", "", "Google API key")
		model            = fs.StringLong("model", "", "Primary model (provider default when empty)")
		fallbackModel    = fs.StringLong("fallback-model", "", "Model retried once when the primary fails (provider default when empty)")
		cacheTTL         = fs.DurationLong("cache-ttl", cache.DefaultTTL, "How long a generated response is reused")
		rateLimitWindow  = fs.DurationLong("rate-limit-window", ratelimit.DefaultWindow, "Sliding rate limit window")
		rateLimitMax     = fs.Int64Long("rate-limit-max", ratelimit.DefaultMaxRequests, "Triggers allowed per user per window")
		handlerTimeout   = fs.DurationLong("handler-timeout", 3*time.Minute, "Upper bound on one time reveal")
		httpAddr         = fs.StringLong("http-addr", ":9090", "Health and metrics listen address")
		logFormat        = fs.StringEnumLong("log-format", "Log output format", "pretty", "json")
		logLevel         = fs.StringEnumLong("log-level", "Minimum log level", "info", "debug", "warn", "error")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return config{}, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := config{
		platform:         *platform,
		telegramToken:    *telegramToken,
		discordToken:     *discordToken,
		discordGuildID:   *discordGuildID,
		llmProvider:      *llmProvider,
		openRouterAPIKey: *openRouterAPIKey,
		openRouterURL:    *openRouterURL,
		anthropicAPIKey:  *anthropicAPIKey,
		googleAPIKey:     *googleAPIKey,
		model:            *model,
		fallbackModel:    *fallbackModel,
		cacheTTL:         *cacheTTL,
		rateLimitWindow:  *rateLimitWindow,
		rateLimitMax:     int(*rateLimitMax),
		handlerTimeout:   *handlerTimeout,
		httpAddr:         *httpAddr,
		logFormat:        *logFormat,
		logLevel:         *logLevel,
	}

	switch cfg.platform {
	case bot.PlatformTelegram:
		if cfg.telegramToken == "" {
			return config{}, errors.New("telegram-token is required")
		}
	case bot.PlatformDiscord:
		if cfg.discordToken == "" {
			return config{}, errors.New("discord-token is required")
		}
	}

	var defaultModel, defaultFallback string
	switch cfg.llmProvider {
	case providerOpenRouter:
		if cfg.openRouterAPIKey == "" {
			return config{}, errors.New("openrouter-api-key is required")
		}
		defaultModel, defaultFallback = openrouter.DefaultModel, openrouter.FallbackModel
	case providerAnthropic:
		if cfg.anthropicAPIKey == "" {
			return config{}, errors.New("anthropic-api-key is required")
		}
		defaultModel, defaultFallback = string(anthropic.DefaultModel), string(anthropic.FallbackModel)
	case providerGoogle:
		if cfg.googleAPIKey == "" {
			return config{}, errors.New("google-api-key is required")
		}
		defaultModel, defaultFallback = string(google.DefaultModel), string(google.FallbackModel)
	}
	if cfg.model == "" {
		cfg.model = defaultModel
	}
	if cfg.fallbackModel == "" {
		cfg.fallbackModel = defaultFallback
	}

	if cfg.rateLimitMax <= 0 {
		return config{}, errors.New("rate-limit-max must be positive")
	}
	return cfg, nil
}

func newCompleter(ctx context.Context, cfg config) (llm.Completer, error) {
	switch cfg.llmProvider {
	case providerAnthropic:
		return anthropic.NewClient(cfg.anthropicAPIKey, ""), nil
	case providerGoogle:
		client, err := google.NewClient(ctx, cfg.googleAPIKey, "")
		if err != nil {
			return nil, fmt.Errorf("creating google client: %w", err)
		}
		return client, nil
	default:
		return openrouter.NewClient(cfg.openRouterAPIKey, cfg.openRouterURL), nil
	}
}

func newRunner(cfg config, b *bot.Bot) (runner, error) {
	switch cfg.platform {
	case bot.PlatformDiscord:
		dg, err := discordgo.New("Bot " + cfg.discordToken)
		if err != nil {
			return nil, fmt.Errorf("creating Discord session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuilds
		return bot.NewDiscord(b, bot.NewDiscordSession(dg)), nil
	default:
		api, err := tgbotapi.NewBotAPI(cfg.telegramToken)
		if err != nil {
			return nil, fmt.Errorf("creating Telegram client: %w", err)
		}
		return bot.NewTelegram(b, api), nil
	}
}
