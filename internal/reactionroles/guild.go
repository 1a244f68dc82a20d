package reactionroles

import (
	"sort"

	"github.com/keshon/server-roles/internal/storage"
)

// Binding attaches one message to one roleset.
type Binding struct {
	MessageID string
	ChannelID string
	Roleset   string
}

// Saver persists a guild's reaction-role section.
type Saver interface {
	SaveReactionRoles(guildID string, rr storage.ReactionRoles) error
}

// Guild is the per-guild configuration aggregate: rolesets by name and
// bindings by message id. Every mutation sets the modified flag; Commit
// writes only when it is set.
type Guild struct {
	id       string
	sets     map[string]*RoleSet
	messages map[string]Binding
	modified bool
	saver    Saver
}

// NewGuild builds the aggregate from its persisted form.
func NewGuild(id string, rr storage.ReactionRoles, saver Saver) *Guild {
	g := &Guild{
		id:       id,
		sets:     make(map[string]*RoleSet, len(rr.Sets)),
		messages: make(map[string]Binding, len(rr.Messages)),
		saver:    saver,
	}
	for name, rec := range rr.Sets {
		set := &RoleSet{name: name, exclusive: rec.Exclusive, owner: g}
		for _, e := range rec.Entries {
			set.entries = append(set.entries, Entry{React: e.React, Role: e.Role})
		}
		g.sets[name] = set
	}
	for mid, rec := range rr.Messages {
		g.messages[mid] = Binding{MessageID: mid, ChannelID: rec.Channel, Roleset: rec.Roleset}
	}
	return g
}

func (g *Guild) ID() string { return g.id }

// Modified reports whether there are unsaved changes.
func (g *Guild) Modified() bool { return g.modified }

func (g *Guild) touch() { g.modified = true }

// Exists reports whether a set with the given name exists.
func (g *Guild) Exists(name string) bool {
	_, ok := g.sets[name]
	return ok
}

// Create adds an empty, non-exclusive set.
func (g *Guild) Create(name string) (*RoleSet, error) {
	if g.Exists(name) {
		return nil, setExists(name)
	}
	set := &RoleSet{name: name, owner: g}
	g.sets[name] = set
	g.touch()
	return set, nil
}

// Fetch returns the named set.
func (g *Guild) Fetch(name string) (*RoleSet, error) {
	set, ok := g.sets[name]
	if !ok {
		return nil, noSuchSet(name)
	}
	return set, nil
}

// FetchOrCreate returns the named set, creating it on first reference.
func (g *Guild) FetchOrCreate(name string) (set *RoleSet, created bool) {
	if set, ok := g.sets[name]; ok {
		return set, false
	}
	set, _ = g.Create(name)
	return set, true
}

// Drop removes the named set. Bindings that reference it are left in place.
func (g *Guild) Drop(name string) error {
	if !g.Exists(name) {
		return noSuchSet(name)
	}
	delete(g.sets, name)
	g.touch()
	return nil
}

// Sets returns all sets sorted by name.
func (g *Guild) Sets() []*RoleSet {
	out := make([]*RoleSet, 0, len(g.sets))
	for _, s := range g.sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Binding returns the binding of a message.
func (g *Guild) Binding(messageID string) (Binding, bool) {
	b, ok := g.messages[messageID]
	return b, ok
}

// Bindings returns all bindings sorted by message id.
func (g *Guild) Bindings() []Binding {
	out := make([]Binding, 0, len(g.messages))
	for _, b := range g.messages {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out
}

// Bind records a binding. A message may be bound to one set only.
func (g *Guild) Bind(b Binding) error {
	if existing, ok := g.messages[b.MessageID]; ok {
		return alreadyBound(b.MessageID, existing.Roleset)
	}
	g.messages[b.MessageID] = b
	g.touch()
	return nil
}

// Unbind removes a message's binding.
func (g *Guild) Unbind(messageID string) (Binding, error) {
	b, ok := g.messages[messageID]
	if !ok {
		return Binding{}, noSuchBinding(messageID)
	}
	delete(g.messages, messageID)
	g.touch()
	return b, nil
}

// Snapshot returns the persisted form of the aggregate.
func (g *Guild) Snapshot() storage.ReactionRoles {
	rr := storage.ReactionRoles{
		Sets:     make(map[string]storage.RoleSet, len(g.sets)),
		Messages: make(map[string]storage.MessageBinding, len(g.messages)),
	}
	for name, s := range g.sets {
		rr.Sets[name] = s.record()
	}
	for mid, b := range g.messages {
		rr.Messages[mid] = storage.MessageBinding{Channel: b.ChannelID, Roleset: b.Roleset}
	}
	return rr
}

// Commit writes the aggregate if it was modified and is a no-op otherwise.
// On failure the aggregate stays modified so a later Commit retries.
func (g *Guild) Commit() error {
	if !g.modified {
		return nil
	}
	if err := g.saver.SaveReactionRoles(g.id, g.Snapshot()); err != nil {
		return &PersistenceError{GuildID: g.id, Err: err}
	}
	g.modified = false
	return nil
}
