package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/keshon/server-roles/internal/logger"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/internal/storage"
	"github.com/keshon/server-roles/pkg/util"
)

// app inspects and repairs the datastore while the bot is stopped.
type app struct {
	storagePath string
	store       *storage.Storage
	gw          *reactionroles.Gateway
}

func newApp() *app {
	return &app{}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "roles-cli",
		Short:         "Inspect and maintain the reaction roles datastore",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.storagePath, storage.Options{})
			if err != nil {
				return fmt.Errorf("open %s: %w", a.storagePath, err)
			}
			a.store = store
			a.gw = reactionroles.NewGateway(store, logger.Component("cli"))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close()
		},
	}

	root.PersistentFlags().StringVar(&a.storagePath, "storage", "datastore.json", "Path to the datastore file")

	root.AddCommand(
		a.guildsCommand(),
		a.setsCommand(),
		a.bindingsCommand(),
		a.dropSetCommand(),
		a.unbindCommand(),
		a.historyCommand(),
	)
	return root
}

func (a *app) guildsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "guilds",
		Short: "List guilds with stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := a.store.Guilds()
			slices.Sort(ids)
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func (a *app) setsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sets <guild>",
		Short: "List the rolesets of a guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.gw.Do(cmd.Context(), args[0], func(g *reactionroles.Guild) error {
				printSets(cmd.OutOrStdout(), g)
				return nil
			})
		},
	}
}

func printSets(w io.Writer, g *reactionroles.Guild) {
	sets := g.Sets()
	if len(sets) == 0 {
		fmt.Fprintln(w, "no rolesets")
		return
	}
	for _, s := range sets {
		mode := ""
		if s.Exclusive() {
			mode = " (exclusive)"
		}
		fmt.Fprintf(w, "%s%s\n", s.Name(), mode)
		for _, e := range s.Entries() {
			fmt.Fprintf(w, "  %s -> %s\n", e.React, e.Role)
		}
	}
}

func (a *app) bindingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bindings <guild>",
		Short: "List the messages bound to rolesets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.gw.Do(cmd.Context(), args[0], func(g *reactionroles.Guild) error {
				bindings := g.Bindings()
				if len(bindings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no bindings")
					return nil
				}
				for _, b := range bindings {
					fmt.Fprintf(cmd.OutOrStdout(), "%s in %s -> %s\n", b.MessageID, b.ChannelID, b.Roleset)
				}
				return nil
			})
		},
	}
}

func (a *app) dropSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drop-set <guild> <set>",
		Short: "Delete a roleset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.gw.Do(cmd.Context(), args[0], func(g *reactionroles.Guild) error {
				if err := g.Drop(args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[1])
				return nil
			})
		},
	}
}

func (a *app) unbindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unbind <guild> <message>",
		Short: "Remove a message binding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.gw.Do(cmd.Context(), args[0], func(g *reactionroles.Guild) error {
				b, err := g.Unbind(args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unbound %s from %s\n", b.MessageID, b.Roleset)
				return nil
			})
		},
	}
}

func (a *app) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <guild>",
		Short: "Show the recent command history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.store.GetCommandsHistory(args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no history")
				return nil
			}
			for _, r := range slices.Backward(records) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s %s\n",
					util.FormatDateTpl(r.Datetime, "YYYY-MM-DD hh:mm:ss"), r.Username, r.Command, r.Param)
			}
			return nil
		},
	}
}
