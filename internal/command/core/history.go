package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/pkg/cmd"
	"github.com/keshon/server-roles/pkg/util"
)

// HistoryCommand shows the most recent commands run on the server.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string            { return "history" }
func (c *HistoryCommand) Description() string     { return "Show the most recent commands run on this server." }
func (c *HistoryCommand) PermissionNode() string  { return "gagbot:core:history" }
func (c *HistoryCommand) PermissionDefault() bool { return false }
func (c *HistoryCommand) Schema() cmd.Schema      { return cmd.NoArgs }

func (c *HistoryCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.FromInvocation(inv)
	if !ok {
		return fmt.Errorf("history: not a chat invocation")
	}
	if mc.Storage == nil {
		return mc.Reply(ctx, "Command history is not available.")
	}

	records, err := mc.Storage.GetCommandsHistory(mc.GuildID())
	if err != nil {
		mc.Log.Error("failed to read command history", "err", err)
		return mc.Reply(ctx, "Something went wrong...")
	}
	if len(records) == 0 {
		return mc.Reply(ctx, "No commands have been run yet.")
	}

	var sb strings.Builder
	sb.WriteString("**Recent commands:**\n")
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line := "`" + r.Command
		if r.Param != "" {
			line += " " + r.Param
		}
		fmt.Fprintf(&sb, "%s %s` by %s in <#%s>\n", util.FormatDateTpl(r.Datetime, "YYYY-MM-DD hh:mm"), line, r.Username, r.ChannelID)
	}
	return mc.Reply(ctx, sb.String())
}
