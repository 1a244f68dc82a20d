package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/internal/storage"
	"github.com/keshon/server-roles/pkg/cmd"
)

// WithCommandLogger records every chat invocation in the guild's command
// history after it ran. History failures are logged, never returned.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			v, ok := command.FromInvocation(inv)
			if !ok || v.Storage == nil || v.GuildID() == "" {
				return err
			}

			m := v.Message
			entry := storage.CommandHistory{
				ChannelID: m.ChannelID,
				UserID:    m.AuthorID,
				Username:  m.Username,
				Command:   c.Name(),
				Param:     params(inv.Args),
				Datetime:  time.Now().UTC(),
			}
			if herr := v.Storage.AppendCommandHistory(m.GuildID, entry); herr != nil {
				v.Log.Warn("failed to log command", "command", c.Name(), "err", herr)
			}
			return err
		})
	}
}

func params(args *cmd.ArgumentList) string {
	if args == nil {
		return ""
	}
	var parts []string
	for _, a := range args.All() {
		if a.Value != nil {
			parts = append(parts, fmt.Sprint(a.Value))
		}
	}
	return strings.Join(parts, " ")
}
