package reactionroles

import (
	"context"
	"fmt"

	"github.com/keshon/server-roles/internal/platform"
)

// resolve walks message → binding → set → role. ok is false when the event
// does not concern a bound set entry.
func (s *Service) resolve(g *Guild, ev platform.ReactionEvent) (b Binding, set *RoleSet, roleID string, ok bool) {
	b, bound := g.Binding(ev.MessageID)
	if !bound {
		return b, nil, "", false
	}
	set, err := g.Fetch(b.Roleset)
	if err != nil {
		s.log.Debug("binding references a missing set", "guild", g.ID(), "message", ev.MessageID, "roleset", b.Roleset)
		return b, nil, "", false
	}
	roleID, ok = set.Role(ev.Emoji)
	return b, set, roleID, ok
}

// OnReactionAdd grants the role bound to the reaction. Under an exclusive set
// every other role of the set the member holds is revoked first, and the
// member's reaction for that entry is removed from the message.
func (s *Service) OnReactionAdd(ctx context.Context, ev platform.ReactionEvent) error {
	if ev.UserBot {
		return nil
	}

	return s.gw.Do(ctx, ev.GuildID, func(g *Guild) error {
		b, set, roleID, ok := s.resolve(g, ev)
		if !ok {
			return nil
		}

		if set.Exclusive() {
			if err := s.revokeOthers(ctx, g, b, set, ev, roleID); err != nil {
				return err
			}
		}

		if err := s.platform.GrantRole(ctx, g.ID(), ev.UserID, roleID); err != nil {
			return fmt.Errorf("grant role %s to %s: %w", roleID, ev.UserID, err)
		}
		s.log.Debug("role granted", "guild", g.ID(), "user", ev.UserID, "role", roleID, "roleset", set.Name())
		return nil
	})
}

// revokeOthers clears every other entry of the set from the member. Held
// roles are not consulted: a cached member may lag behind a grant issued
// moments earlier, and revoking a role the member lacks is a no-op.
func (s *Service) revokeOthers(ctx context.Context, g *Guild, b Binding, set *RoleSet, ev platform.ReactionEvent, keep string) error {
	for _, e := range set.Entries() {
		if e.React == ev.Emoji || e.Role == keep {
			continue
		}
		if err := s.platform.RevokeRole(ctx, g.ID(), ev.UserID, e.Role); err != nil {
			return fmt.Errorf("revoke role %s from %s: %w", e.Role, ev.UserID, err)
		}
		if err := s.platform.RemoveReaction(ctx, b.ChannelID, b.MessageID, e.React, ev.UserID); err != nil {
			s.log.Warn("failed to remove reaction", "guild", g.ID(), "message", b.MessageID, "react", e.React, "user", ev.UserID, "err", err)
		}
	}
	return nil
}

// OnReactionRemove revokes the role bound to the reaction.
func (s *Service) OnReactionRemove(ctx context.Context, ev platform.ReactionEvent) error {
	if ev.UserBot {
		return nil
	}

	return s.gw.Do(ctx, ev.GuildID, func(g *Guild) error {
		_, set, roleID, ok := s.resolve(g, ev)
		if !ok {
			return nil
		}
		if err := s.platform.RevokeRole(ctx, g.ID(), ev.UserID, roleID); err != nil {
			return fmt.Errorf("revoke role %s from %s: %w", roleID, ev.UserID, err)
		}
		s.log.Debug("role revoked", "guild", g.ID(), "user", ev.UserID, "role", roleID, "roleset", set.Name())
		return nil
	})
}
