package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/tengfone/clockblocker/internal/metrics"
)

const triggerCustomID = "what_time"

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "start",
		Description: "Meet the most overengineered time-telling bot ever created",
	},
	{
		Name:        "time",
		Description: "Ask what time it is",
	},
}

// Discord serves the same trigger through slash commands and a button.
type Discord struct {
	bot     *Bot
	session DiscordSession
	log     Logger
}

func NewDiscord(b *Bot, session DiscordSession) *Discord {
	return &Discord{
		bot:     b,
		session: session,
		log:     b.log.With("platform", PlatformDiscord),
	}
}

func (d *Discord) Run(ctx context.Context) error {
	d.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		d.handleInteraction(ctx, i)
	})
	d.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		d.log.InfoContext(ctx, "connected to Discord", "username", r.User.Username)
	})

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}
	defer d.session.Close()

	if err := d.registerCommands(ctx); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}

	d.log.InfoContext(ctx, "bot is running, press Ctrl+C to stop")
	<-ctx.Done()
	d.log.Info("shutdown signal received")
	return nil
}

func (d *Discord) registerCommands(ctx context.Context) error {
	guildID := d.bot.config.DiscordGuildID
	if guildID != "" {
		d.log.InfoContext(ctx, "registering commands to guild", "guild_id", guildID)
	} else {
		d.log.InfoContext(ctx, "registering commands globally (may take up to 1 hour to propagate)")
	}
	_, err := d.session.ApplicationCommandBulkOverwrite(d.session.GetUserID(), guildID, commands)
	if err != nil {
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}
	d.log.InfoContext(ctx, "registered commands", "count", len(commands))
	return nil
}

func (d *Discord) handleInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(ctx, d.bot.config.HandlerTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "start":
			d.respondWelcome(ctx, i)
		case "time":
			d.trigger(ctx, i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{Content: TriggerLabel},
			})
		}
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == triggerCustomID {
			d.trigger(ctx, i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseDeferredMessageUpdate,
			})
		}
	}
}

func (d *Discord) respondWelcome(ctx context.Context, i *discordgo.InteractionCreate) {
	err := d.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: welcomeText,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    TriggerLabel,
							CustomID: triggerCustomID,
							Style:    discordgo.PrimaryButton,
						},
					},
				},
			},
		},
	})
	if err != nil {
		d.log.ErrorContext(ctx, "failed to send welcome", "error", err, "channel_id", i.ChannelID)
	}
}

func (d *Discord) trigger(ctx context.Context, i *discordgo.InteractionCreate, ack *discordgo.InteractionResponse) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	userID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		d.log.WarnContext(ctx, "unexpected user id", "user_id", user.ID, "error", err)
		return
	}

	if err := d.session.InteractionRespond(i.Interaction, ack); err != nil {
		d.log.ErrorContext(ctx, "failed to acknowledge interaction", "error", err, "channel_id", i.ChannelID)
		return
	}

	chat := &discordChat{session: d.session, channelID: i.ChannelID}
	if err := d.bot.HandleTrigger(ctx, PlatformDiscord, userID, chat); err != nil {
		d.log.ErrorContext(ctx, "trigger failed", "error", err, "user_id", userID, "channel_id", i.ChannelID)
	}
}

// interactionUser is the member in guilds and the user in DMs.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// discordChat implements reveal.Chat for one Discord channel
type discordChat struct {
	session   DiscordSession
	channelID string
}

func (c *discordChat) Typing(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.session.ChannelTyping(c.channelID)
}

func (c *discordChat) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.session.ChannelMessageSend(c.channelID, text); err != nil {
		metrics.MessagesSentTotal.WithLabelValues(PlatformDiscord, "error").Inc()
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues(PlatformDiscord, "success").Inc()
	return nil
}

// SendStyled sends text as is: Discord renders Markdown by default.
func (c *discordChat) SendStyled(ctx context.Context, text string) error {
	return c.Send(ctx, text)
}
