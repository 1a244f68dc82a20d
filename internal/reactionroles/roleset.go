package reactionroles

import (
	"slices"

	"github.com/keshon/server-roles/internal/storage"
)

// Entry binds one reaction emoji to one role.
type Entry struct {
	React string
	Role  string
}

// RoleSet is a named collection of emoji → role entries within one guild.
// Entries keep their insertion order.
type RoleSet struct {
	name      string
	exclusive bool
	entries   []Entry
	owner     *Guild
}

func (s *RoleSet) Name() string    { return s.name }
func (s *RoleSet) Exclusive() bool { return s.exclusive }
func (s *RoleSet) Len() int        { return len(s.entries) }
func (s *RoleSet) Empty() bool     { return len(s.entries) == 0 }

// Entries returns a copy of the entries in iteration order.
func (s *RoleSet) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Role returns the role granted by react.
func (s *RoleSet) Role(react string) (string, bool) {
	if i := s.index(react); i >= 0 {
		return s.entries[i].Role, true
	}
	return "", false
}

func (s *RoleSet) index(react string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.React == react })
}

// AddEntry adds a new react. It fails if the react is already in the set.
func (s *RoleSet) AddEntry(react, role string) (Entry, error) {
	if s.index(react) >= 0 {
		return Entry{}, reactExists(s.name, react)
	}
	e := Entry{React: react, Role: role}
	s.entries = append(s.entries, e)
	s.owner.touch()
	return e, nil
}

// UpdateEntry changes the role granted by an existing react.
func (s *RoleSet) UpdateEntry(react, role string) (oldRole, newRole string, err error) {
	i := s.index(react)
	if i < 0 {
		return "", "", noSuchReact(s.name, react)
	}
	oldRole = s.entries[i].Role
	s.entries[i].Role = role
	s.owner.touch()
	return oldRole, role, nil
}

// RemoveEntry deletes a react. Dropping a set left empty is up to the caller.
func (s *RoleSet) RemoveEntry(react string) (oldRole string, err error) {
	i := s.index(react)
	if i < 0 {
		return "", noSuchReact(s.name, react)
	}
	oldRole = s.entries[i].Role
	s.entries = slices.Delete(s.entries, i, i+1)
	s.owner.touch()
	return oldRole, nil
}

// SetExclusive always marks the guild modified, even if the value is unchanged.
func (s *RoleSet) SetExclusive(exclusive bool) {
	s.exclusive = exclusive
	s.owner.touch()
}

func (s *RoleSet) record() storage.RoleSet {
	entries := make(storage.Entries, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, storage.Entry{React: e.React, Role: e.Role})
	}
	return storage.RoleSet{Exclusive: s.exclusive, Entries: entries}
}
