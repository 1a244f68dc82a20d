package cmd

import "context"

// Middleware wraps a command (e.g. logging, guild checks).
// The wrapped value is still a Command.
type Middleware func(Command) Command

// Apply applies middlewares in order; the last one applied ends up outermost.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// Wrapped replaces Run and delegates everything else to Inner.
type Wrapped struct {
	Inner   Command
	RunFunc func(ctx context.Context, inv *Invocation) error
}

func (w *Wrapped) Name() string            { return w.Inner.Name() }
func (w *Wrapped) Description() string     { return w.Inner.Description() }
func (w *Wrapped) PermissionNode() string  { return w.Inner.PermissionNode() }
func (w *Wrapped) PermissionDefault() bool { return w.Inner.PermissionDefault() }
func (w *Wrapped) Schema() Schema          { return w.Inner.Schema() }

// Run runs the wrapper's RunFunc, or the inner command when none is set.
func (w *Wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.RunFunc != nil {
		return w.RunFunc(ctx, inv)
	}
	return w.Inner.Run(ctx, inv)
}

// Wrap returns a command that runs run instead of c.Run.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &Wrapped{Inner: c, RunFunc: run}
}
