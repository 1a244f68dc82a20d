package reactionroles

import (
	"errors"
	"fmt"
)

// NotFoundError means a referenced roleset, entry, channel, message, role or
// binding does not exist. Its message is fit for a chat reply.
type NotFoundError struct {
	Resource string
	ID       string
	msg      string
}

func (e *NotFoundError) Error() string { return e.msg }

// ConflictError means the operation would duplicate existing state, or the
// target is not in a state the operation accepts. Nothing was mutated.
type ConflictError struct {
	Resource string
	ID       string
	msg      string
}

func (e *ConflictError) Error() string { return e.msg }

// PersistenceError wraps a failed store write. The in-memory aggregate keeps
// the mutation and stays dirty.
type PersistenceError struct {
	GuildID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving guild %s: %v", e.GuildID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func noSuchSet(name string) error {
	return &NotFoundError{Resource: "set", ID: name, msg: fmt.Sprintf("No such set `%s`.", name)}
}

func noSuchReact(set, react string) error {
	return &NotFoundError{Resource: "entry", ID: react, msg: fmt.Sprintf("The set `%s` doesn't have the emoji %s.", set, react)}
}

func noSuchChannel(channelID string) error {
	return &NotFoundError{Resource: "channel", ID: channelID, msg: fmt.Sprintf("Invalid channel `<#%s>`.", channelID)}
}

func noSuchMessage(messageID string) error {
	return &NotFoundError{Resource: "message", ID: messageID, msg: fmt.Sprintf("Invalid message `%s`.", messageID)}
}

func noSuchBinding(messageID string) error {
	return &NotFoundError{Resource: "binding", ID: messageID, msg: fmt.Sprintf("The message `%s` is not bound to a roleset.", messageID)}
}

// NoSuchRole is returned by commands that resolve role arguments.
func NoSuchRole(ref string) error {
	return &NotFoundError{Resource: "role", ID: ref, msg: fmt.Sprintf("No such role `%s`.", ref)}
}

func setExists(name string) error {
	return &ConflictError{Resource: "set", ID: name, msg: fmt.Sprintf("The set `%s` already exists.", name)}
}

func reactExists(set, react string) error {
	return &ConflictError{Resource: "entry", ID: react, msg: fmt.Sprintf("The %s emoji is already in `%s`!", react, set)}
}

func alreadyBound(messageID, set string) error {
	return &ConflictError{Resource: "binding", ID: messageID, msg: fmt.Sprintf("This message is already bound to the roleset `%s`.", set)}
}

func hasReactions(messageID string) error {
	return &ConflictError{Resource: "message", ID: messageID, msg: "Existing reactions must be cleared before you can enable a new roleset for this message."}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsUserFacing reports whether err carries a message meant for the chat reply.
func IsUserFacing(err error) bool {
	return IsNotFound(err) || IsConflict(err)
}
