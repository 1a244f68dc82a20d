// Package command turns chat messages into command invocations.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/keshon/server-roles/internal/permissions"
	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/internal/storage"
	"github.com/keshon/server-roles/pkg/cmd"
)

// Authorizer is the permission collaborator.
type Authorizer interface {
	CanExecute(ctx context.Context, guildID, userID string, c permissions.Node) (bool, error)
}

type Options struct {
	// Prefixes in declaration order. On equal length the first one wins.
	Prefixes               []string
	AllowLeadingWhitespace bool
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{Prefixes: []string{"gb!"}, AllowLeadingWhitespace: true}
}

// Deps are the collaborators handed to every command.
type Deps struct {
	Platform platform.Platform
	Roles    *reactionroles.Service
	Storage  *storage.Storage
	Registry *cmd.Registry
	Auth     Authorizer
	Log      *log.Logger
}

type Dispatcher struct {
	deps Deps
	opts Options
	log  *log.Logger
}

func NewDispatcher(deps Deps, opts Options) (*Dispatcher, error) {
	if len(opts.Prefixes) == 0 {
		return nil, errors.New("dispatcher needs at least one prefix")
	}
	if deps.Registry == nil || deps.Platform == nil || deps.Auth == nil {
		return nil, errors.New("dispatcher needs a registry, a platform and an authorizer")
	}
	if deps.Log == nil {
		deps.Log = log.Default()
	}
	return &Dispatcher{deps: deps, opts: opts, log: deps.Log}, nil
}

// MatchPrefix returns the longest prefix of content, or "" if none match.
func MatchPrefix(content string, prefixes []string) string {
	best := ""
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(content, p) && len(p) > len(best) {
			best = p
		}
	}
	return best
}

// Dispatch runs the command a message invokes, if any. Messages that are not
// commands, name unknown commands or come from members without permission
// are ignored and yield nil. A parse failure is answered with a usage hint
// and returned.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *platform.IncomingMessage) error {
	if msg == nil || msg.AuthorBot {
		return nil
	}

	prefix := MatchPrefix(msg.Content, d.opts.Prefixes)
	if prefix == "" {
		return nil
	}
	tail := msg.Content[len(prefix):]
	if d.opts.AllowLeadingWhitespace {
		tail = strings.TrimLeftFunc(tail, unicode.IsSpace)
	}
	if tail == "" || unicode.IsSpace(rune(tail[0])) {
		return nil
	}

	name, rest := cmd.NextToken(tail)
	c, ok := d.deps.Registry.Get(name)
	if !ok {
		return nil
	}

	id := uuid.NewString()
	l := d.log.With("invocation", id, "command", name, "guild", msg.GuildID, "user", msg.AuthorID)

	allowed, err := d.deps.Auth.CanExecute(ctx, msg.GuildID, msg.AuthorID, c)
	if err != nil {
		return fmt.Errorf("permission check for %s: %w", name, err)
	}
	if !allowed {
		l.Debug("permission denied")
		return nil
	}

	mc := &MessageContext{
		Platform:     d.deps.Platform,
		Roles:        d.deps.Roles,
		Storage:      d.deps.Storage,
		Registry:     d.deps.Registry,
		Message:      msg,
		Prefix:       prefix,
		InvocationID: id,
		Log:          l,
	}

	args, err := cmd.Parse(name, c.Schema(), rest)
	if err != nil {
		l.Debug("argument parse failed", "err", err)
		if rerr := mc.Reply(ctx, err.Error()+"\n"+UsageHint(prefix, c)); rerr != nil {
			l.Warn("failed to send usage hint", "err", rerr)
		}
		return err
	}

	l.Info("dispatching", "args", args.Len())
	err = c.Run(ctx, &cmd.Invocation{Args: args, Data: mc})
	if errors.Is(err, cmd.ErrNotHandled) {
		return mc.Reply(ctx, UsageHint(prefix, c))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// UsageHint renders "**Usage:** `<prefix><usage>` - <description>".
func UsageHint(prefix string, c cmd.Command) string {
	return fmt.Sprintf("**Usage:** `%s%s` - %s", prefix, cmd.UsageOf(c), c.Description())
}
