// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/keshon/server-roles/datastore"
)

const commandHistoryLimit int = 20

type Storage struct {
	ds *datastore.DataStore
	// mu serializes read-modify-write of a guild record.
	mu sync.Mutex
}

// Options tune the underlying datastore.
type Options struct {
	AutoSaveInterval time.Duration
	BackupCount      int
}

// Record is the per-guild document.
type Record struct {
	ReactionRoles   ReactionRoles    `json:"reactionroles"`
	CommandsHistory []CommandHistory `json:"commands_history"`
}

func New(filePath string, opts Options) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.AutoSaveInterval = opts.AutoSaveInterval
	cfg.BackupCount = opts.BackupCount

	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Guilds returns the ids of every guild with a stored document.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}

// getGuildRecord loads the guild's document. found is false when the guild
// has never been written.
func (s *Storage) getGuildRecord(guildID string) (rec *Record, found bool, err error) {
	var record Record
	found, err = s.ds.Get(guildID, &record)
	if err != nil {
		return nil, found, fmt.Errorf("error loading guild %s: %w", guildID, err)
	}
	record.ReactionRoles.normalize()
	if record.CommandsHistory == nil {
		record.CommandsHistory = []CommandHistory{}
	}
	return &record, found, nil
}

// putGuildRecord stores the document and flushes it to disk.
func (s *Storage) putGuildRecord(guildID string, record *Record) error {
	if err := s.ds.Put(guildID, record); err != nil {
		return err
	}
	return s.ds.Flush()
}
