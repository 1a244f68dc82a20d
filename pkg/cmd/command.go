// Package cmd provides a transport-agnostic command core: a command has a name,
// a description, a permission node, an argument schema, and Run(ctx, invocation).
// How text reaches it (chat prefix, CLI) is defined by adapters that wrap this.
package cmd

import (
	"context"
	"errors"
)

// ErrNotHandled is returned by Run when the invocation did not make sense for
// the command. Adapters answer it with a usage hint.
var ErrNotHandled = errors.New("command not handled")

// Invocation carries the parsed arguments and an opaque payload. Adapters set
// Data to their own context (e.g. the chat message plus collaborators).
type Invocation struct {
	Args *ArgumentList
	Data any
}

// Command is the universal contract: identity, access policy, argument schema
// and execution. Definitions are immutable once registered.
type Command interface {
	Name() string
	Description() string
	PermissionNode() string
	PermissionDefault() bool
	Schema() Schema
	Run(ctx context.Context, inv *Invocation) error
}
