// Package platform describes the narrow slice of the chat platform the bot
// consumes. The Discord adapter implements it; tests use Fake.
package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a channel, message, role or member cannot be
// resolved within the given guild.
var ErrNotFound = errors.New("not found")

type Channel struct {
	ID      string
	GuildID string
	Name    string
}

type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Content   string
}

type Role struct {
	ID   string
	Name string
}

// IncomingMessage is a message-received notification.
type IncomingMessage struct {
	ID        string
	GuildID   string
	ChannelID string
	AuthorID  string
	Username  string
	AuthorBot bool
	Content   string
}

// ReactionEvent is a reaction-added or reaction-removed notification.
// Emoji is the API name: the character for unicode emoji, "name:id" otherwise.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	UserBot   bool
	Emoji     string
}

// Platform is the chat-platform collaborator.
type Platform interface {
	Send(ctx context.Context, channelID, content string) error

	Channel(ctx context.Context, guildID, channelID string) (*Channel, error)
	Message(ctx context.Context, channelID, messageID string) (*Message, error)
	Reactions(ctx context.Context, channelID, messageID string) ([]string, error)
	Role(ctx context.Context, guildID, roleID string) (*Role, error)
	Roles(ctx context.Context, guildID string) ([]*Role, error)

	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error

	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	IsAdministrator(ctx context.Context, guildID, userID string) (bool, error)
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID string) error
}
