// Package permissions decides whether a member may run a command.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/keshon/server-roles/internal/config"
	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/pkg/cmd"
)

// Node is what a permission check needs from a command.
type Node interface {
	PermissionNode() string
	PermissionDefault() bool
}

var _ Node = cmd.Command(nil)

// Checker grants access in this order: the developer, guild administrators,
// members holding a role granted the command's node, then the command's
// default.
type Checker struct {
	platform platform.Platform
	cfg      *config.Config
}

func NewChecker(p platform.Platform, cfg *config.Config) *Checker {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Checker{platform: p, cfg: cfg}
}

// CanExecute reports whether userID may run c in guildID.
func (ch *Checker) CanExecute(ctx context.Context, guildID, userID string, c Node) (bool, error) {
	if ch.cfg.IsDeveloper(userID) {
		return true, nil
	}
	if guildID == "" {
		return c.PermissionDefault(), nil
	}

	admin, err := ch.platform.IsAdministrator(ctx, guildID, userID)
	if err != nil && !errors.Is(err, platform.ErrNotFound) {
		return false, fmt.Errorf("check administrator: %w", err)
	}
	if admin {
		return true, nil
	}

	if granted := ch.cfg.PermissionGrants.Roles(c.PermissionNode()); len(granted) > 0 {
		held, err := ch.platform.MemberRoles(ctx, guildID, userID)
		if err != nil && !errors.Is(err, platform.ErrNotFound) {
			return false, fmt.Errorf("fetch member roles: %w", err)
		}
		for _, r := range held {
			if slices.Contains(granted, r) {
				return true, nil
			}
		}
	}

	return c.PermissionDefault(), nil
}
