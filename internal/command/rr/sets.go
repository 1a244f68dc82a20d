package rr

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/pkg/cmd"
)

// SetsCommand lists the guild's rolesets and bound messages.
type SetsCommand struct{}

func (c *SetsCommand) Name() string            { return "rrsets" }
func (c *SetsCommand) Description() string     { return "List rolesets and the messages they are bound to." }
func (c *SetsCommand) PermissionNode() string  { return "gagbot:reactionroles:roleset" }
func (c *SetsCommand) PermissionDefault() bool { return false }
func (c *SetsCommand) Schema() cmd.Schema      { return cmd.NoArgs }

func (c *SetsCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := chatContext(inv)
	if err != nil {
		return err
	}

	var b strings.Builder
	err = mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		sets := g.Sets()
		if len(sets) == 0 {
			b.WriteString("There are no rolesets on this server.")
			return nil
		}

		b.WriteString("**Rolesets:**\n")
		for _, s := range sets {
			flag := ""
			if s.Exclusive() {
				flag = ", exclusive"
			}
			fmt.Fprintf(&b, "`%s` (%d entries%s)\n", s.Name(), s.Len(), flag)
		}

		if bindings := g.Bindings(); len(bindings) > 0 {
			b.WriteString("**Bound messages:**\n")
			for _, bd := range bindings {
				fmt.Fprintf(&b, "`%s` in <#%s> uses `%s`\n", bd.MessageID, bd.ChannelID, bd.Roleset)
			}
		}
		return nil
	})
	if err != nil {
		return respond(ctx, mc, err)
	}
	return mc.Reply(ctx, b.String())
}
