package command

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/internal/storage"
	"github.com/keshon/server-roles/pkg/cmd"
)

// MessageContext is what a chat command receives as Invocation.Data.
type MessageContext struct {
	Platform platform.Platform
	Roles    *reactionroles.Service
	Storage  *storage.Storage
	Registry *cmd.Registry
	Message  *platform.IncomingMessage
	// Prefix is the prefix the message matched, for usage hints.
	Prefix string
	// InvocationID tags every log line of one dispatch.
	InvocationID string
	Log          *log.Logger
}

// Reply sends content to the channel the command came from.
func (m *MessageContext) Reply(ctx context.Context, content string) error {
	return m.Platform.Send(ctx, m.Message.ChannelID, content)
}

func (m *MessageContext) GuildID() string { return m.Message.GuildID }

// FromInvocation extracts the MessageContext of a chat invocation.
func FromInvocation(inv *cmd.Invocation) (*MessageContext, bool) {
	if inv == nil {
		return nil, false
	}
	mc, ok := inv.Data.(*MessageContext)
	return mc, ok && mc != nil
}
