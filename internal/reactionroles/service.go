// Package reactionroles binds emoji reactions on a message to roles: rolesets,
// message bindings, the enable flow and the reaction event handler.
package reactionroles

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/pkg/util"
)

// Service ties the aggregate gateway to the chat platform.
type Service struct {
	gw              *Gateway
	platform        platform.Platform
	log             *log.Logger
	initConcurrency int
}

type Option func(*Service)

// WithInitConcurrency bounds how many bound messages InitGuild resolves at once.
func WithInitConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.initConcurrency = n
		}
	}
}

func NewService(gw *Gateway, p platform.Platform, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{gw: gw, platform: p, log: logger, initConcurrency: 4}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Do runs fn against the guild's aggregate under the guild lock. See Gateway.Do.
func (s *Service) Do(ctx context.Context, guildID string, fn func(g *Guild) error) error {
	return s.gw.Do(ctx, guildID, fn)
}

// Enable binds a roleset to a message and pre-populates the set's reactions.
//
// The message must belong to the channel, the channel to the guild, and the
// message must carry no reactions yet.
func (s *Service) Enable(ctx context.Context, guildID, channelID, messageID, setName string) (*Binding, error) {
	var bound *Binding

	err := s.gw.Do(ctx, guildID, func(g *Guild) error {
		if _, err := s.platform.Channel(ctx, guildID, channelID); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				return noSuchChannel(channelID)
			}
			return fmt.Errorf("fetch channel %s: %w", channelID, err)
		}
		if _, err := s.platform.Message(ctx, channelID, messageID); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				return noSuchMessage(messageID)
			}
			return fmt.Errorf("fetch message %s: %w", messageID, err)
		}

		existing, err := s.platform.Reactions(ctx, channelID, messageID)
		if err != nil {
			return fmt.Errorf("list reactions on %s: %w", messageID, err)
		}
		if len(existing) > 0 {
			return hasReactions(messageID)
		}

		set, err := g.Fetch(setName)
		if err != nil {
			return err
		}

		b := Binding{MessageID: messageID, ChannelID: channelID, Roleset: set.Name()}
		if err := g.Bind(b); err != nil {
			return err
		}
		bound = &b

		var errs []error
		for _, e := range set.Entries() {
			if err := s.platform.AddReaction(ctx, channelID, messageID, e.React); err != nil {
				s.log.Warn("failed to add reaction", "guild", guildID, "message", messageID, "react", e.React, "err", err)
				errs = append(errs, fmt.Errorf("add reaction %s: %w", e.React, err))
			}
		}
		return errors.Join(errs...)
	})

	return bound, err
}

// InitResult summarises a guild initialization pass.
type InitResult struct {
	Resolved   int
	Unresolved int
}

// InitGuild re-fetches every bound message so reaction events on them are
// observable again. Bindings that no longer resolve are logged, not pruned.
func (s *Service) InitGuild(ctx context.Context, guildID string) (InitResult, error) {
	var bindings []Binding
	if err := s.gw.Do(ctx, guildID, func(g *Guild) error {
		bindings = g.Bindings()
		return nil
	}); err != nil {
		return InitResult{}, err
	}

	results := util.ForEach(ctx, bindings, s.initConcurrency, func(ctx context.Context, b Binding) error {
		if _, err := s.platform.Channel(ctx, guildID, b.ChannelID); err != nil {
			return fmt.Errorf("channel %s: %w", b.ChannelID, err)
		}
		if _, err := s.platform.Message(ctx, b.ChannelID, b.MessageID); err != nil {
			return fmt.Errorf("message %s: %w", b.MessageID, err)
		}
		return nil
	})

	var res InitResult
	for i, err := range results {
		if err != nil {
			res.Unresolved++
			s.log.Warn("bound message could not be resolved", "guild", guildID, "message", bindings[i].MessageID, "roleset", bindings[i].Roleset, "err", err)
			continue
		}
		res.Resolved++
	}

	s.log.Info("guild initialized", "guild", guildID, "bindings", len(bindings), "resolved", res.Resolved, "unresolved", res.Unresolved)
	return res, nil
}
