package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tengfone/clockblocker/internal/metrics"
)

const pollTimeoutSeconds = 60

// Telegram long-polls updates and handles each one in its own goroutine.
type Telegram struct {
	bot *Bot
	api TelegramAPI
	log Logger
	wg  sync.WaitGroup
}

func NewTelegram(b *Bot, api TelegramAPI) *Telegram {
	return &Telegram{
		bot: b,
		api: api,
		log: b.log.With("platform", PlatformTelegram),
	}
}

// Run returns once ctx is done or the update channel closes, after every
// in-flight update has been handled.
func (t *Telegram) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := t.api.GetUpdatesChan(u)

	t.log.InfoContext(ctx, "bot is running, press Ctrl+C to stop")
	defer t.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			t.log.Info("shutdown signal received")
			t.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.log.InfoContext(ctx, "update channel closed")
				return nil
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.handleUpdate(ctx, update)
			}()
		}
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, t.bot.config.HandlerTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.Data != TriggerLabel || q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return
		}
		if _, err := t.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			t.log.WarnContext(ctx, "failed to answer callback query", "error", err)
		}
		t.trigger(ctx, q.From.ID, q.Message.Chat.ID)

	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil {
			return
		}
		if msg.IsCommand() {
			if msg.Command() == "start" {
				if err := t.sendWelcome(msg.Chat.ID); err != nil {
					t.log.ErrorContext(ctx, "failed to send welcome", "error", err, "chat_id", msg.Chat.ID)
				}
			}
			return
		}
		if msg.Text == TriggerLabel && msg.From != nil {
			t.trigger(ctx, msg.From.ID, msg.Chat.ID)
		}
	}
}

func (t *Telegram) trigger(ctx context.Context, userID, chatID int64) {
	chat := &telegramChat{api: t.api, chatID: chatID}
	if err := t.bot.HandleTrigger(ctx, PlatformTelegram, userID, chat); err != nil {
		t.log.ErrorContext(ctx, "trigger failed", "error", err, "user_id", userID, "chat_id", chatID)
	}
}

func welcomeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(TriggerLabel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (t *Telegram) sendWelcome(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, welcomeText)
	msg.ReplyMarkup = welcomeKeyboard()
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sending welcome message: %w", err)
	}
	return nil
}

// telegramChat implements reveal.Chat for one Telegram chat
type telegramChat struct {
	api    TelegramAPI
	chatID int64
}

func (c *telegramChat) Typing(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewChatAction(c.chatID, tgbotapi.ChatTyping))
	return err
}

func (c *telegramChat) Send(ctx context.Context, text string) error {
	return c.send(ctx, tgbotapi.NewMessage(c.chatID, text))
}

func (c *telegramChat) SendStyled(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return c.send(ctx, msg)
}

func (c *telegramChat) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(msg); err != nil {
		metrics.MessagesSentTotal.WithLabelValues(PlatformTelegram, "error").Inc()
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues(PlatformTelegram, "success").Inc()
	return nil
}
