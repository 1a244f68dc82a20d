// Package discord connects the bot to the Discord gateway: session setup,
// event routing and the platform adapter.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/pkg/cmd"
	"github.com/keshon/server-roles/pkg/keyqueue"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent

// NewSession creates an unopened session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.Identify.Intents = intents
	s.StateEnabled = true
	return s, nil
}

// Bot routes gateway events. Events of one guild are handled one at a time
// in arrival order; guilds proceed independently.
type Bot struct {
	s          *discordgo.Session
	dispatcher *command.Dispatcher
	roles      *reactionroles.Service
	gw         *reactionroles.Gateway
	queue      *keyqueue.Manager
	log        *log.Logger
}

func NewBot(s *discordgo.Session, d *command.Dispatcher, roles *reactionroles.Service, gw *reactionroles.Gateway, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Default()
	}
	b := &Bot{s: s, dispatcher: d, roles: roles, gw: gw, log: logger}
	b.queue = keyqueue.NewManager(func(msg string) {
		b.log.Error("event handling failed", "status", msg)
	})
	return b
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.s.AddHandler(b.onReady)
	b.s.AddHandler(b.onGuildCreate)
	b.s.AddHandler(b.onGuildDelete)
	b.s.AddHandler(b.onMessageCreate)
	b.s.AddHandler(b.onMessageReactionAdd)
	b.s.AddHandler(b.onMessageReactionRemove)

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	b.drain()
	if err := b.s.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// drain stops event processing, cancelling handlers still in flight.
func (b *Bot) drain() {
	b.log.Info("shutdown signal received, cleaning up", "queue", b.queue.Status())
	b.queue.Close()
}

func (b *Bot) submit(key string, job keyqueue.Job) {
	if err := b.queue.Submit(key, job); err != nil {
		b.log.Debug("event dropped", "key", key, "err", err)
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("discord bot is running", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	guildID := g.ID
	b.submit(guildID, func(ctx context.Context) error {
		_, err := b.roles.InitGuild(ctx, guildID)
		return err
	})
}

func (b *Bot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Outages report the guild as unavailable; its data stays cached.
	if g.Unavailable {
		return
	}
	guildID := g.ID
	b.submit(guildID, func(ctx context.Context) error {
		b.gw.Forget(guildID)
		b.log.Info("left guild", "guild", guildID)
		return nil
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	msg := toIncoming(m.Message)

	key := msg.GuildID
	if key == "" {
		key = "dm:" + msg.ChannelID
	}
	b.submit(key, func(ctx context.Context) error {
		err := b.dispatcher.Dispatch(ctx, &msg)
		if isUsageError(err) {
			b.log.Debug("command rejected", "guild", msg.GuildID, "user", msg.AuthorID, "err", err)
			return nil
		}
		return err
	})
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" {
		return
	}
	ev := toReactionEvent(r.MessageReaction, r.Member, b.isBot)
	b.submit(ev.GuildID, func(ctx context.Context) error {
		return b.roles.OnReactionAdd(ctx, ev)
	})
}

func (b *Bot) onMessageReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.GuildID == "" {
		return
	}
	ev := toReactionEvent(r.MessageReaction, nil, b.isBot)
	b.submit(ev.GuildID, func(ctx context.Context) error {
		return b.roles.OnReactionRemove(ctx, ev)
	})
}

// isBot reports whether userID is this bot or a cached bot member.
func (b *Bot) isBot(guildID, userID string) bool {
	if b.s.State.User != nil && b.s.State.User.ID == userID {
		return true
	}
	if m, err := b.s.State.Member(guildID, userID); err == nil && m.User != nil {
		return m.User.Bot
	}
	return false
}

func isUsageError(err error) bool {
	var pe *cmd.ParseError
	var ne *cmd.NoArgsError
	return errors.As(err, &pe) || errors.As(err, &ne)
}
