package reactionroles

import (
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-roles/internal/logger"
	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/internal/storage"
)

var errWrite = errors.New("write failed")

type memStore struct {
	mu     sync.Mutex
	docs   map[string]storage.ReactionRoles
	writes int
	loads  int
	fail   bool
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]storage.ReactionRoles)}
}

func (m *memStore) LoadReactionRoles(guildID string) (storage.ReactionRoles, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	rr, ok := m.docs[guildID]
	if !ok {
		return storage.ReactionRoles{Sets: map[string]storage.RoleSet{}, Messages: map[string]storage.MessageBinding{}}, false, nil
	}
	return rr, true, nil
}

func (m *memStore) SaveReactionRoles(guildID string, rr storage.ReactionRoles) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errWrite
	}
	m.writes++
	m.docs[guildID] = rr
	return nil
}

func (m *memStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func quietLogger() *log.Logger { return logger.Discard() }

type fixture struct {
	store *memStore
	fake  *platform.Fake
	svc   *Service
}

const (
	guildID   = "g1"
	channelID = "c1"
	messageID = "m1"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	fake := platform.NewFake()
	fake.AddChannel(guildID, channelID)
	fake.AddMessage(guildID, channelID, messageID)
	gw := NewGateway(store, quietLogger())
	return &fixture{store: store, fake: fake, svc: NewService(gw, fake, quietLogger())}
}

// seed creates a set through the service so the store sees one write.
func (f *fixture) seed(t *testing.T, set string, exclusive bool, entries ...Entry) {
	t.Helper()
	err := f.svc.Do(t.Context(), guildID, func(g *Guild) error {
		rs, _ := g.FetchOrCreate(set)
		for _, e := range entries {
			if _, err := rs.AddEntry(e.React, e.Role); err != nil {
				return err
			}
		}
		if exclusive {
			rs.SetExclusive(true)
		}
		return nil
	})
	require.NoError(t, err)
}
