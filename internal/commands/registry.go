// Package commands is the static list of chat commands the bot loads.
package commands

import (
	"fmt"

	"github.com/keshon/server-roles/internal/command/core"
	"github.com/keshon/server-roles/internal/command/rr"
	"github.com/keshon/server-roles/internal/middleware"
	"github.com/keshon/server-roles/pkg/cmd"
)

// All returns every chat command with its middlewares applied.
func All() []cmd.Command {
	guild := func(c cmd.Command) cmd.Command {
		return cmd.Apply(c,
			middleware.WithCommandLogger(),
			middleware.WithGuildOnly(),
		)
	}

	return []cmd.Command{
		guild(&rr.EnableCommand{}),
		guild(&rr.SetCommand{}),
		guild(&rr.SetsCommand{}),
		guild(&core.HistoryCommand{}),
		&core.HelpCommand{},
	}
}

// Register loads All into reg.
func Register(reg *cmd.Registry) error {
	for _, c := range All() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Name(), err)
		}
	}
	return nil
}
