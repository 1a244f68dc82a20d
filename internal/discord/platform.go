package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/pkg/retrylimit"
)

// Platform implements platform.Platform on a discordgo session. Reads prefer
// the state cache and fall back to REST. Writes that mutate members or
// reactions go through an adaptive limiter with retry.
type Platform struct {
	s       *discordgo.Session
	timeout time.Duration
	lim     *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
}

var _ platform.Platform = (*Platform)(nil)

func NewPlatform(s *discordgo.Session, timeout time.Duration, logger *log.Logger) *Platform {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retry := retrylimit.DefaultRetryConfig()
	retry.Logger = logger
	return &Platform{
		s:       s,
		timeout: timeout,
		lim:     retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retry:   retry,
	}
}

// call bounds one platform request by the configured timeout.
func (p *Platform) call(ctx context.Context, fn func(opt discordgo.RequestOption) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return classify(fn(discordgo.WithContext(ctx)))
}

// write is call with rate limiting and retry.
func (p *Platform) write(ctx context.Context, fn func(opt discordgo.RequestOption) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return retrylimit.WithRetryConfig(ctx, func() error {
		return classify(fn(discordgo.WithContext(ctx)))
	}, p.lim, p.retry)
}

func (p *Platform) Send(ctx context.Context, channelID, content string) error {
	return p.call(ctx, func(opt discordgo.RequestOption) error {
		_, err := p.s.ChannelMessageSend(channelID, content, opt)
		return err
	})
}

func (p *Platform) Channel(ctx context.Context, guildID, channelID string) (*platform.Channel, error) {
	ch, err := p.s.State.Channel(channelID)
	if err != nil {
		err = p.call(ctx, func(opt discordgo.RequestOption) error {
			ch, err = p.s.Channel(channelID, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	if ch.GuildID != guildID {
		return nil, fmt.Errorf("channel %s is not in guild %s: %w", channelID, guildID, platform.ErrNotFound)
	}
	return &platform.Channel{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name}, nil
}

func (p *Platform) fetchMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	var m *discordgo.Message
	err := p.call(ctx, func(opt discordgo.RequestOption) error {
		var err error
		m, err = p.s.ChannelMessage(channelID, messageID, opt)
		return err
	})
	return m, err
}

func (p *Platform) Message(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	m, err := p.fetchMessage(ctx, channelID, messageID)
	if err != nil {
		return nil, err
	}
	return toMessage(m), nil
}

func (p *Platform) Reactions(ctx context.Context, channelID, messageID string) ([]string, error) {
	m, err := p.fetchMessage(ctx, channelID, messageID)
	if err != nil {
		return nil, err
	}
	return reactionNames(m), nil
}

func (p *Platform) Role(ctx context.Context, guildID, roleID string) (*platform.Role, error) {
	if r, err := p.s.State.Role(guildID, roleID); err == nil {
		return &platform.Role{ID: r.ID, Name: r.Name}, nil
	}
	roles, err := p.Roles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", roleID, platform.ErrNotFound)
}

func (p *Platform) Roles(ctx context.Context, guildID string) ([]*platform.Role, error) {
	var roles []*discordgo.Role
	if g, err := p.s.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		roles = g.Roles
	} else {
		err := p.call(ctx, func(opt discordgo.RequestOption) error {
			var err error
			roles, err = p.s.GuildRoles(guildID, opt)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]*platform.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, &platform.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (p *Platform) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return p.write(ctx, func(opt discordgo.RequestOption) error {
		return p.s.MessageReactionAdd(channelID, messageID, emoji, opt)
	})
}

func (p *Platform) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	return p.write(ctx, func(opt discordgo.RequestOption) error {
		return p.s.MessageReactionRemove(channelID, messageID, emoji, userID, opt)
	})
}

func (p *Platform) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if m, err := p.s.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	var m *discordgo.Member
	err := p.call(ctx, func(opt discordgo.RequestOption) error {
		var err error
		m, err = p.s.GuildMember(guildID, userID, opt)
		return err
	})
	return m, err
}

func (p *Platform) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	m, err := p.member(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), m.Roles...), nil
}

// IsAdministrator reports whether the member owns the guild or holds a role
// with the administrator permission.
func (p *Platform) IsAdministrator(ctx context.Context, guildID, userID string) (bool, error) {
	guild, err := p.s.State.Guild(guildID)
	if err != nil {
		err = p.call(ctx, func(opt discordgo.RequestOption) error {
			guild, err = p.s.Guild(guildID, opt)
			return err
		})
		if err != nil {
			return false, err
		}
	}
	if guild.OwnerID == userID {
		return true, nil
	}

	m, err := p.member(ctx, guildID, userID)
	if err != nil {
		return false, err
	}
	return hasAdministrator(guild.Roles, m.Roles), nil
}

func hasAdministrator(roles []*discordgo.Role, held []string) bool {
	for _, r := range roles {
		if r.Permissions&discordgo.PermissionAdministrator == 0 {
			continue
		}
		for _, id := range held {
			if id == r.ID {
				return true
			}
		}
	}
	return false
}

func (p *Platform) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	return p.write(ctx, func(opt discordgo.RequestOption) error {
		return p.s.GuildMemberRoleAdd(guildID, userID, roleID, opt)
	})
}

func (p *Platform) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	return p.write(ctx, func(opt discordgo.RequestOption) error {
		return p.s.GuildMemberRoleRemove(guildID, userID, roleID, opt)
	})
}
