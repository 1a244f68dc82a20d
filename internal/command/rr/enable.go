package rr

import (
	"context"
	"fmt"

	"github.com/keshon/server-roles/pkg/cmd"
)

type EnableCommand struct{}

func (c *EnableCommand) Name() string            { return "rrenable" }
func (c *EnableCommand) Description() string     { return "Bind a roleset to a message." }
func (c *EnableCommand) PermissionNode() string  { return "gagbot:reactionroles:message" }
func (c *EnableCommand) PermissionDefault() bool { return false }

func (c *EnableCommand) Schema() cmd.Schema {
	return cmd.Params(
		cmd.P("channel", cmd.Channel),
		cmd.P("message", cmd.ID),
		cmd.P("roleset", cmd.Str),
	)
}

func (c *EnableCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := chatContext(inv)
	if err != nil {
		return err
	}

	channelID := inv.Args.String("channel")
	messageID := inv.Args.String("message")
	setName := inv.Args.String("roleset")

	b, err := mc.Roles.Enable(ctx, mc.GuildID(), channelID, messageID, setName)
	if b == nil || isPersistence(err) {
		return respond(ctx, mc, err)
	}
	if err != nil {
		// The binding stands; some reactions could not be added.
		mc.Log.Warn("roleset enabled with errors", "message", messageID, "err", err)
		return mc.Reply(ctx, fmt.Sprintf("Bound `%s` to message `%s`, but some reactions could not be added.", b.Roleset, b.MessageID))
	}
	return mc.Reply(ctx, fmt.Sprintf("Bound `%s` to message `%s` in <#%s>.", b.Roleset, b.MessageID, b.ChannelID))
}
