package rr

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/pkg/cmd"
)

// SetCommand manipulates the rolesets of a guild:
//   - add: add an emoji/role pair, creating the set on first use
//   - update: change the role granted by an existing emoji
//   - delete: remove an emoji; a set left empty is dropped
//   - drop: remove the whole set
//   - list: show a set's emoji and roles
//   - togglex: flip whether the set is exclusive
//   - create: create an empty set
type SetCommand struct{}

func (c *SetCommand) Name() string            { return "rrset" }
func (c *SetCommand) Description() string     { return "Manipulate rolesets for reaction menus." }
func (c *SetCommand) PermissionNode() string  { return "gagbot:reactionroles:roleset" }
func (c *SetCommand) PermissionDefault() bool { return false }

func (c *SetCommand) Schema() cmd.Schema {
	return cmd.Params(
		cmd.P("cmd", cmd.Choice("add", "update", "delete", "drop", "list", "togglex", "create")),
		cmd.P("set", cmd.Str),
		cmd.P("react", cmd.Optional(cmd.Emoji)),
		cmd.P("role", cmd.Optional(cmd.Role)),
	)
}

func (c *SetCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, err := chatContext(inv)
	if err != nil {
		return err
	}

	setName := inv.Args.String("set")
	react := inv.Args.String("react")
	roleRef := inv.Args.String("role")

	switch op := inv.Args.String("cmd"); op {
	case "add", "update":
		if !inv.Args.Has("react") || !inv.Args.Has("role") {
			return cmd.ErrNotHandled
		}
		return c.insert(ctx, mc, setName, react, roleRef, op == "update")
	case "delete":
		if !inv.Args.Has("react") {
			return cmd.ErrNotHandled
		}
		return c.delete(ctx, mc, setName, react)
	case "drop":
		return c.drop(ctx, mc, setName)
	case "list":
		return c.list(ctx, mc, setName)
	case "togglex":
		return c.toggle(ctx, mc, setName)
	case "create":
		return c.create(ctx, mc, setName)
	}
	return cmd.ErrNotHandled
}

func (c *SetCommand) insert(ctx context.Context, mc *command.MessageContext, setName, react, roleRef string, update bool) error {
	roleID, err := resolveRole(ctx, mc, roleRef)
	if err != nil {
		return respond(ctx, mc, err)
	}

	var reply string
	err = mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		if update {
			set, err := g.Fetch(setName)
			if err != nil {
				return err
			}
			oldRole, newRole, err := set.UpdateEntry(react, roleID)
			if err != nil {
				return err
			}
			reply = fmt.Sprintf("Updated <@&%s> to <@&%s> in `%s`", oldRole, newRole, setName)
			return nil
		}

		set, _ := g.FetchOrCreate(setName)
		if _, err := set.AddEntry(react, roleID); err != nil {
			return err
		}
		reply = fmt.Sprintf("Added %s to `%s`.", displayEmoji(react), setName)
		return nil
	})
	if err != nil {
		return respond(ctx, mc, err)
	}
	return mc.Reply(ctx, reply)
}

func (c *SetCommand) delete(ctx context.Context, mc *command.MessageContext, setName, react string) error {
	err := mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		set, err := g.Fetch(setName)
		if err != nil {
			return err
		}
		if _, err := set.RemoveEntry(react); err != nil {
			return err
		}
		if set.Empty() {
			return g.Drop(setName)
		}
		return nil
	})
	if err != nil {
		return respond(ctx, mc, err)
	}
	return mc.Reply(ctx, fmt.Sprintf("Deleted %s from `%s`.", displayEmoji(react), setName))
}

func (c *SetCommand) drop(ctx context.Context, mc *command.MessageContext, setName string) error {
	err := mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		return g.Drop(setName)
	})
	if err != nil {
		return respond(ctx, mc, err)
	}
	return mc.Reply(ctx, fmt.Sprintf("Cleared the set %s.", setName))
}

func (c *SetCommand) list(ctx context.Context, mc *command.MessageContext, setName string) error {
	var entries []reactionroles.Entry
	var exclusive bool
	err := mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		set, err := g.Fetch(setName)
		if err != nil {
			return err
		}
		entries, exclusive = set.Entries(), set.Exclusive()
		return nil
	})
	if err != nil {
		return respond(ctx, mc, err)
	}

	if len(entries) == 0 {
		return mc.Reply(ctx, fmt.Sprintf("There are no items in the set `%s`.", setName))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Reaction Roles in `%s`:**\n", setName)
	for _, e := range entries {
		fmt.Fprintf(&b, "%s grants <@&%s>\n", displayEmoji(e.React), e.Role)
	}
	if exclusive {
		b.WriteString("_Members may hold only one of these roles._\n")
	}
	return mc.Reply(ctx, b.String())
}

func (c *SetCommand) toggle(ctx context.Context, mc *command.MessageContext, setName string) error {
	var exclusive bool
	err := mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		set, err := g.Fetch(setName)
		if err != nil {
			return err
		}
		set.SetExclusive(!set.Exclusive())
		exclusive = set.Exclusive()
		return nil
	})
	if err != nil {
		return respond(ctx, mc, err)
	}
	if exclusive {
		return mc.Reply(ctx, fmt.Sprintf("The set `%s` is now exclusive.", setName))
	}
	return mc.Reply(ctx, fmt.Sprintf("The set `%s` is no longer exclusive.", setName))
}

func (c *SetCommand) create(ctx context.Context, mc *command.MessageContext, setName string) error {
	err := mc.Roles.Do(ctx, mc.GuildID(), func(g *reactionroles.Guild) error {
		_, err := g.Create(setName)
		return err
	})
	if err != nil {
		return respond(ctx, mc, err)
	}
	return mc.Reply(ctx, fmt.Sprintf("Created the set `%s`.", setName))
}
