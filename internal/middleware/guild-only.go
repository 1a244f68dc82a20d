// Package middleware holds the cmd.Middleware wrappers applied to chat commands.
package middleware

import (
	"context"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/pkg/cmd"
)

// WithGuildOnly wraps a command so it silently does nothing outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if v, ok := command.FromInvocation(inv); ok && v.GuildID() == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
