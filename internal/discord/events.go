package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/server-roles/internal/platform"
)

func toMessage(m *discordgo.Message) *platform.Message {
	out := &platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
	}
	return out
}

func toIncoming(m *discordgo.Message) platform.IncomingMessage {
	in := platform.IncomingMessage{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		in.AuthorID = m.Author.ID
		in.Username = m.Author.Username
		in.AuthorBot = m.Author.Bot
	}
	return in
}

// reactionNames lists the API names of the reactions present on m.
func reactionNames(m *discordgo.Message) []string {
	var names []string
	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil || r.Count == 0 {
			continue
		}
		names = append(names, r.Emoji.APIName())
	}
	return names
}

// toReactionEvent converts a gateway reaction. isBot resolves the author
// when the event carries no member.
func toReactionEvent(r *discordgo.MessageReaction, member *discordgo.Member, isBot func(guildID, userID string) bool) platform.ReactionEvent {
	ev := platform.ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.APIName(),
	}
	switch {
	case member != nil && member.User != nil:
		ev.UserBot = member.User.Bot
	case isBot != nil:
		ev.UserBot = isBot(r.GuildID, r.UserID)
	}
	return ev
}
