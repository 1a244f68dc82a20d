// Package core holds the general-purpose chat commands.
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/pkg/cmd"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string            { return "help" }
func (c *HelpCommand) Description() string     { return "Get a list of available commands." }
func (c *HelpCommand) PermissionNode() string  { return "gagbot:core:help" }
func (c *HelpCommand) PermissionDefault() bool { return true }
func (c *HelpCommand) Schema() cmd.Schema      { return cmd.Untyped() }

func (c *HelpCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.FromInvocation(inv)
	if !ok {
		return fmt.Errorf("help: not a chat invocation")
	}

	if name := inv.Args.At(0); name != "" {
		target, ok := mc.Registry.Get(name)
		if !ok {
			return mc.Reply(ctx, fmt.Sprintf("Unknown command `%s`.", name))
		}
		return mc.Reply(ctx, command.UsageHint(mc.Prefix, target))
	}

	var sb strings.Builder
	sb.WriteString("**Commands:**\n")
	for _, target := range mc.Registry.GetAll() {
		fmt.Fprintf(&sb, "`%s%s` - %s\n", mc.Prefix, cmd.UsageOf(target), target.Description())
	}
	return mc.Reply(ctx, sb.String())
}
