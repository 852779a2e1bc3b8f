package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/ethanbaker/bucket/pkg/utils"
	"golang.org/x/time/rate"
)

// Engine is the factoid engine as seen by the transport
type Engine interface {
	Nick() string
	Handle(ctx context.Context, line bucket.Line) *factoid.Message
	HandleJoin(ctx context.Context, nick, channel string) *factoid.Message
	HandlePart(ctx context.Context, nick, channel string)
}

// Bot relays Discord messages and member events to the factoid engine
type Bot struct {
	dg     *discordgo.Session // Discord session
	engine Engine

	admins       map[string]bool // User ids allowed to run admin commands
	botChannelID string          // Only channel listened to, empty for every channel
	timeout      time.Duration   // Deadline for handling one message
	limiter      *rate.Limiter   // Outgoing messages, kept under Discord's per-channel limit
	allowBots    bool            // Answer other bots too
	events       *queue          // Messages and member events, handled in arrival order
}

// NewBot creates a Discord bot on top of the engine
func NewBot(cfg *utils.Config, engine Engine) (*Bot, error) {
	// Get discord token
	token := cfg.Get("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN not set in config or environment")
	}

	botChannelID := cfg.Get("BOT_CHANNEL_ID")
	if botChannelID == "" {
		log.Println("[DISCORD]: BOT_CHANNEL_ID not set, listening in every channel")
	}

	// Create a new Discord session
	dg, err := discordgo.New("Bot " + strings.TrimPrefix(token, "Bot "))
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	b := &Bot{
		dg:           dg,
		engine:       engine,
		admins:       make(map[string]bool),
		botChannelID: botChannelID,
		timeout:      cfg.GetDurationWithDefault("DISCORD_HANDLE_TIMEOUT", 30*time.Second),
		limiter:      newLimiter(cfg.GetIntWithDefault("DISCORD_SEND_RATE", 5)),
		allowBots:    cfg.GetBool("DISCORD_ALLOW_BOTS"),
	}
	for _, id := range cfg.GetList("BUCKET_ADMINS") {
		b.admins[id] = true
	}

	// Intents
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages

	// Handlers run on the gateway loop in arrival order and only hand work to the queue
	dg.SyncEvents = true
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onGuildMemberAdd)
	dg.AddHandler(b.onGuildMemberRemove)

	return b, nil
}

// Start connects to Discord
func (b *Bot) Start() error {
	b.events = newQueue(64)
	if err := b.dg.Open(); err != nil {
		b.events.stop()
		return err
	}
	return nil
}

// Stop closes the Discord connection, then lets the event in progress finish
func (b *Bot) Stop() error {
	err := b.dg.Close()
	if b.events != nil {
		b.events.stop()
	}
	return err
}

// enqueue hands an event to the worker, dropping it when the bot is shutting down
func (b *Bot) enqueue(job func()) {
	if b.events == nil || !b.events.push(job) {
		log.Println("[DISCORD]: Dropping event, bot is not running")
	}
}

// Send posts a message to a channel, rendering actions in italics
func (b *Bot) Send(channelID string, msg *factoid.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	for _, chunk := range chunkString(formatMessage(msg), 1900) {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for send slot: %w", err)
		}
		if _, err := b.dg.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}
	return nil
}

// newLimiter allows perSecond messages a second with an equal burst
func newLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[DISCORD]: Logged in as: %s#%s", r.User.Username, r.User.Discriminator)
}

// onMessageCreate handles incoming messages
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from the bot itself
	if m.Author == nil || m.Author.ID == s.State.User.ID || (m.Author.Bot && !b.allowBots) {
		return
	}

	// Only the configured bot channel and direct messages are handled
	if b.botChannelID != "" && m.ChannelID != b.botChannelID && m.GuildID != "" {
		return
	}

	line, ok := toLine(s.State.User.ID, b.engine.Nick(), m.Message, b.admins)
	if !ok {
		return
	}

	b.enqueue(func() { b.handleLine(m.ChannelID, line) })
}

// handleLine runs one line through the engine and sends the reply, if any
func (b *Bot) handleLine(channelID string, line bucket.Line) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	msg := b.engine.Handle(ctx, line)
	if msg == nil {
		return
	}

	if err := b.Send(channelID, msg); err != nil {
		log.Printf("[DISCORD]: %v", err)
	}
}

// onGuildMemberAdd treats a new guild member as joining the bot channel
func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	channelID := b.eventChannel(s, m.GuildID)
	if channelID == "" {
		return
	}

	b.enqueue(func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		msg := b.engine.HandleJoin(ctx, displayName(m.User), channelID)
		if msg == nil {
			return
		}
		if err := b.Send(channelID, msg); err != nil {
			log.Printf("[DISCORD]: %v", err)
		}
	})
}

// onGuildMemberRemove treats a departing member as leaving the bot channel
func (b *Bot) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || m.User.Bot {
		return
	}

	nick, channelID := displayName(m.User), b.eventChannel(s, m.GuildID)
	b.enqueue(func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		b.engine.HandlePart(ctx, nick, channelID)
	})
}

// eventChannel picks the channel member events are reported in
func (b *Bot) eventChannel(s *discordgo.Session, guildID string) string {
	if b.botChannelID != "" {
		return b.botChannelID
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	return guild.SystemChannelID
}
