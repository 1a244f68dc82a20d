package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReactionRoles is the persisted reaction-role section of a guild document.
type ReactionRoles struct {
	Sets     map[string]RoleSet        `json:"sets"`
	Messages map[string]MessageBinding `json:"messages"`
}

type RoleSet struct {
	Exclusive bool    `json:"exclusive"`
	Entries   Entries `json:"entries"`
}

type MessageBinding struct {
	Channel string `json:"channel"`
	Roleset string `json:"roleset"`
}

// Entry maps one reaction emoji to a role id.
type Entry struct {
	React string
	Role  string
}

// Entries is encoded as a JSON object {emoji: roleId} whose key order is the
// slice order, so the set's iteration order survives a round trip.
type Entries []Entry

func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(entry.React)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(entry.Role)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *Entries) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("entries: expected object, got %v", tok)
	}

	out := Entries{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("entries: expected string key, got %v", keyTok)
		}
		var role string
		if err := dec.Decode(&role); err != nil {
			return fmt.Errorf("entries: value for %q: %w", key, err)
		}
		out = append(out, Entry{React: key, Role: role})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}

func (r *ReactionRoles) normalize() {
	if r.Sets == nil {
		r.Sets = map[string]RoleSet{}
	}
	if r.Messages == nil {
		r.Messages = map[string]MessageBinding{}
	}
}

// LoadReactionRoles returns the guild's reaction-role section. found is false
// when the guild has no document yet.
func (s *Storage) LoadReactionRoles(guildID string) (ReactionRoles, bool, error) {
	record, found, err := s.getGuildRecord(guildID)
	if err != nil {
		return ReactionRoles{}, found, err
	}
	return record.ReactionRoles, found, nil
}

// SaveReactionRoles replaces the guild's reaction-role section and writes it.
func (s *Storage) SaveReactionRoles(guildID string, rr ReactionRoles) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, _, err := s.getGuildRecord(guildID)
	if err != nil {
		return err
	}
	rr.normalize()
	record.ReactionRoles = rr
	return s.putGuildRecord(guildID, record)
}
