// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/internal/commands"
	"github.com/keshon/server-roles/internal/config"
	"github.com/keshon/server-roles/internal/discord"
	"github.com/keshon/server-roles/internal/logger"
	"github.com/keshon/server-roles/internal/permissions"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/internal/storage"
	"github.com/keshon/server-roles/pkg/cmd"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal("invalid configuration", "err", err)
	}
	l := logger.Configure(cfg.LogLevel, os.Stderr)
	l.Info("starting reaction roles bot", "storage", cfg.StoragePath, "prefixes", cfg.Prefixes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		l.Error("discord bot error", "err", err)
		os.Exit(1)
	}
	l.Info("discord bot exited cleanly")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := storage.New(cfg.StoragePath, storage.Options{
		AutoSaveInterval: cfg.AutoSaveInterval,
		BackupCount:      cfg.BackupCount,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Error("failed to flush storage", "err", err)
		}
	}()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	p := discord.NewPlatform(session, cfg.PlatformTimeout, logger.Component("platform"))

	gw := reactionroles.NewGateway(store, logger.Component("gateway"))
	roles := reactionroles.NewService(gw, p, logger.Component("reactionroles"),
		reactionroles.WithInitConcurrency(cfg.InitConcurrency))

	registry := cmd.NewRegistry()
	if err := commands.Register(registry); err != nil {
		return err
	}

	dispatcher, err := command.NewDispatcher(command.Deps{
		Platform: p,
		Roles:    roles,
		Storage:  store,
		Registry: registry,
		Auth:     permissions.NewChecker(p, cfg),
		Log:      logger.Component("dispatcher"),
	}, command.Options{
		Prefixes:               cfg.Prefixes,
		AllowLeadingWhitespace: cfg.AllowLeadingWhitespace,
	})
	if err != nil {
		return err
	}

	bot := discord.NewBot(session, dispatcher, roles, gw, logger.Component("discord"))
	return bot.Run(ctx)
}
