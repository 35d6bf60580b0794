package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/tengfone/clockblocker/internal/metrics"
	"github.com/tengfone/clockblocker/internal/reveal"
)

// TriggerLabel is the keyboard button text that starts a time reveal.
const TriggerLabel = "⏰ What Time Is It?"

const welcomeText = "🌟 Welcome to the most overengineered time-telling bot ever created!\n\n" +
	"I don't simply tell you the time - I take you on a journey through the very fabric of temporal existence. " +
	"Prepare yourself for philosophical musings, wild guesses, and questionable scientific methods.\n\n" +
	"Use the button below to begin your temporal adventure!"

const (
	PlatformTelegram = "telegram"
	PlatformDiscord  = "discord"
)

type Config struct {
	HandlerTimeout time.Duration
	DiscordGuildID string
}

// Bot is the platform independent part of the bot: it rate limits triggers
// and hands allowed ones to the sequence.
type Bot struct {
	log      Logger
	limiter  Limiter
	sequence Sequence
	config   Config
}

func New(log Logger, limiter Limiter, sequence Sequence, config Config) *Bot {
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = 3 * time.Minute
	}
	return &Bot{
		log:      log,
		limiter:  limiter,
		sequence: sequence,
		config:   config,
	}
}

// HandleTrigger runs the time reveal for userID in chat, or tells the user how
// long to wait when they are over the limit.
func (b *Bot) HandleTrigger(ctx context.Context, platform string, userID int64, chat reveal.Chat) error {
	log := b.log.With("platform", platform, "user_id", userID)

	allowed, wait := b.limiter.Allow(userID)
	if !allowed {
		metrics.TriggersTotal.WithLabelValues(platform, "limited").Inc()
		log.InfoContext(ctx, "rate limited", "wait", wait)
		if err := chat.Send(ctx, rateLimitedText(wait)); err != nil {
			return fmt.Errorf("sending rate limit notice: %w", err)
		}
		return nil
	}

	log.InfoContext(ctx, "starting time reveal")
	start := time.Now()
	if err := b.sequence.Run(ctx, chat); err != nil {
		metrics.TriggersTotal.WithLabelValues(platform, "failed").Inc()
		return fmt.Errorf("running time reveal: %w", err)
	}
	metrics.TriggersTotal.WithLabelValues(platform, "allowed").Inc()
	metrics.SequenceDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
	log.InfoContext(ctx, "time reveal delivered", "duration", time.Since(start))
	return nil
}

func rateLimitedText(wait time.Duration) string {
	return fmt.Sprintf("⏳ Whoa there, time enthusiast! You're moving too fast through the temporal plane.\n\n"+
		"Please wait %d seconds before embarking on another temporal adventure.\n\n"+
		"Perhaps this is a good moment to contemplate the nature of patience... 🤔", int(wait.Seconds()))
}
