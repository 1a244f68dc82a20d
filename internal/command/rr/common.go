// Package rr holds the reaction-role chat commands.
package rr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/pkg/cmd"
)

const genericFailure = "Something went wrong..."

var errNotChat = errors.New("not a chat invocation")

func chatContext(inv *cmd.Invocation) (*command.MessageContext, error) {
	mc, ok := command.FromInvocation(inv)
	if !ok {
		return nil, errNotChat
	}
	return mc, nil
}

// respond turns a domain failure into a chat reply. Not-found and conflict
// errors are answered with their own message and swallowed; anything else is
// answered with a generic failure and returned for the caller to log.
func respond(ctx context.Context, mc *command.MessageContext, err error) error {
	if err == nil {
		return nil
	}
	if reactionroles.IsUserFacing(err) && !isPersistence(err) {
		return mc.Reply(ctx, userFacing(err))
	}

	mc.Log.Error("command failed", "err", err)
	if rerr := mc.Reply(ctx, genericFailure); rerr != nil {
		mc.Log.Warn("failed to send reply", "err", rerr)
	}
	return err
}

func isPersistence(err error) bool {
	var pe *reactionroles.PersistenceError
	return errors.As(err, &pe)
}

// userFacing picks the domain error out of err, which may be joined.
func userFacing(err error) string {
	var nf *reactionroles.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var ce *reactionroles.ConflictError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return err.Error()
}

// resolveRole finds a guild role by id, then by case-insensitive name.
func resolveRole(ctx context.Context, mc *command.MessageContext, ref string) (string, error) {
	role, err := mc.Platform.Role(ctx, mc.GuildID(), ref)
	if err == nil {
		return role.ID, nil
	}
	if !errors.Is(err, platform.ErrNotFound) {
		return "", fmt.Errorf("fetch role %s: %w", ref, err)
	}

	roles, err := mc.Platform.Roles(ctx, mc.GuildID())
	if err != nil {
		return "", fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, ref) {
			return r.ID, nil
		}
	}
	return "", reactionroles.NoSuchRole(ref)
}

// displayEmoji renders a stored emoji key so chat shows the emoji itself.
func displayEmoji(react string) string {
	if strings.Contains(react, ":") {
		return "<:" + react + ">"
	}
	return react
}
