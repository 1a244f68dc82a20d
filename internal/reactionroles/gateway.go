package reactionroles

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/keshon/server-roles/internal/storage"
)

// Store is the persistent document store collaborator.
type Store interface {
	LoadReactionRoles(guildID string) (storage.ReactionRoles, bool, error)
	Saver
}

type guildSlot struct {
	sem   chan struct{}
	guild *Guild
}

// Gateway owns the loaded guild aggregates and serializes access to each one.
// At most one Do runs per guild at a time.
type Gateway struct {
	store Store
	log   *log.Logger

	mu    sync.Mutex
	slots map[string]*guildSlot
}

func NewGateway(store Store, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{
		store: store,
		log:   logger,
		slots: make(map[string]*guildSlot),
	}
}

func (gw *Gateway) slot(guildID string) *guildSlot {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	s, ok := gw.slots[guildID]
	if !ok {
		s = &guildSlot{sem: make(chan struct{}, 1)}
		gw.slots[guildID] = s
	}
	return s
}

// Do runs fn with exclusive access to the guild's aggregate, loading it on
// first use, and commits afterwards. Commit is a no-op when fn mutated nothing.
// The returned error joins fn's error with a PersistenceError, if any.
func (gw *Gateway) Do(ctx context.Context, guildID string, fn func(g *Guild) error) error {
	if guildID == "" {
		return errors.New("guild id is empty")
	}

	s := gw.slot(guildID)
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	if s.guild == nil {
		rr, found, err := gw.store.LoadReactionRoles(guildID)
		if err != nil {
			return fmt.Errorf("load guild %s: %w", guildID, err)
		}
		if !found {
			gw.log.Debug("no stored document, starting empty", "guild", guildID)
		}
		s.guild = NewGuild(guildID, rr, gw.store)
	}

	err := fn(s.guild)
	if cerr := s.guild.Commit(); cerr != nil {
		gw.log.Error("commit failed", "guild", guildID, "err", cerr)
		return errors.Join(err, cerr)
	}
	return err
}

// Forget drops the cached aggregate so the next Do reloads it from the store.
// An aggregate with unsaved changes is kept.
func (gw *Gateway) Forget(guildID string) {
	gw.mu.Lock()
	s, ok := gw.slots[guildID]
	gw.mu.Unlock()
	if !ok {
		return
	}

	s.sem <- struct{}{}
	if s.guild == nil || !s.guild.Modified() {
		s.guild = nil
	}
	<-s.sem
}
