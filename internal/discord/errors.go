package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/server-roles/internal/platform"
)

// restError exposes the status of a discordgo REST failure to retrylimit.
type restError struct {
	err *discordgo.RESTError
}

func (e *restError) Error() string { return e.err.Error() }
func (e *restError) Unwrap() error { return e.err }

func (e *restError) StatusCode() int {
	if e.err.Response == nil {
		return 0
	}
	return e.err.Response.StatusCode
}

// classify maps REST failures onto the platform error surface: 404 becomes
// platform.ErrNotFound, every status is kept reachable for the retrier.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return fmt.Errorf("%w: %w", platform.ErrNotFound, err)
	}

	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return err
	}
	wrapped := &restError{err: re}
	if wrapped.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %w", platform.ErrNotFound, wrapped)
	}
	return wrapped
}
