package platform

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// FakeBotID is the user id the Fake attributes its own reactions to.
const FakeBotID = "bot"

// SentMessage is a message recorded by Fake.Send.
type SentMessage struct {
	ChannelID string
	Content   string
}

type fakeReaction struct {
	emoji string
	users []string
}

// Fake is an in-memory Platform for tests.
type Fake struct {
	mu        sync.Mutex
	channels  map[string]*Channel
	messages  map[string]*Message
	reactions map[string][]*fakeReaction
	roles     map[string][]*Role
	members   map[string][]string
	cached    map[string][]string
	admins    map[string]bool
	failures  map[string]error

	Sent  []SentMessage
	Calls []string
}

func NewFake() *Fake {
	return &Fake{
		channels:  make(map[string]*Channel),
		messages:  make(map[string]*Message),
		reactions: make(map[string][]*fakeReaction),
		roles:     make(map[string][]*Role),
		members:   make(map[string][]string),
		cached:    make(map[string][]string),
		admins:    make(map[string]bool),
		failures:  make(map[string]error),
	}
}

func memberKey(guildID, userID string) string { return guildID + "/" + userID }

func (f *Fake) AddChannel(guildID, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channelID] = &Channel{ID: channelID, GuildID: guildID, Name: "channel-" + channelID}
}

func (f *Fake) AddMessage(guildID, channelID, messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[messageID] = &Message{ID: messageID, ChannelID: channelID, GuildID: guildID}
}

func (f *Fake) AddRole(guildID, roleID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[guildID] = append(f.roles[guildID], &Role{ID: roleID, Name: name})
}

func (f *Fake) SetMemberRoles(guildID, userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[memberKey(guildID, userID)] = slices.Clone(roleIDs)
}

// SetCachedMemberRoles makes MemberRoles answer roleIDs while grants and
// revokes keep acting on the real roles, as a lagging member cache does.
func (f *Fake) SetCachedMemberRoles(guildID, userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached[memberKey(guildID, userID)] = slices.Clone(roleIDs)
}

func (f *Fake) SetAdministrator(guildID, userID string, admin bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins[memberKey(guildID, userID)] = admin
}

// Fail makes every call of the named operation return err. A nil err clears it.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// AddUserReaction records a reaction as if userID had pressed it.
func (f *Fake) AddUserReaction(messageID, emoji, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addReaction(messageID, emoji, userID)
}

// HasRole reports whether the member currently holds roleID.
func (f *Fake) HasRole(guildID, userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.members[memberKey(guildID, userID)], roleID)
}

// ReactionUsers returns who reacted with emoji on the message.
func (f *Fake) ReactionUsers(messageID, emoji string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reactions[messageID] {
		if r.emoji == emoji {
			return slices.Clone(r.users)
		}
	}
	return nil
}

func (f *Fake) record(op string, args ...any) error {
	f.Calls = append(f.Calls, fmt.Sprintf("%s%v", op, args))
	return f.failures[op]
}

func (f *Fake) addReaction(messageID, emoji, userID string) {
	for _, r := range f.reactions[messageID] {
		if r.emoji == emoji {
			if !slices.Contains(r.users, userID) {
				r.users = append(r.users, userID)
			}
			return
		}
	}
	f.reactions[messageID] = append(f.reactions[messageID], &fakeReaction{emoji: emoji, users: []string{userID}})
}

func (f *Fake) Send(ctx context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("send", channelID); err != nil {
		return err
	}
	f.Sent = append(f.Sent, SentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *Fake) Channel(ctx context.Context, guildID, channelID string) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("channel", channelID); err != nil {
		return nil, err
	}
	c, ok := f.channels[channelID]
	if !ok || c.GuildID != guildID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *Fake) Message(ctx context.Context, channelID, messageID string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("message", messageID); err != nil {
		return nil, err
	}
	m, ok := f.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *Fake) Reactions(ctx context.Context, channelID, messageID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("reactions", messageID); err != nil {
		return nil, err
	}
	if m, ok := f.messages[messageID]; !ok || m.ChannelID != channelID {
		return nil, ErrNotFound
	}
	var out []string
	for _, r := range f.reactions[messageID] {
		if len(r.users) > 0 {
			out = append(out, r.emoji)
		}
	}
	return out, nil
}

func (f *Fake) Role(ctx context.Context, guildID, roleID string) (*Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("role", roleID); err != nil {
		return nil, err
	}
	for _, r := range f.roles[guildID] {
		if r.ID == roleID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *Fake) Roles(ctx context.Context, guildID string) ([]*Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("roles", guildID); err != nil {
		return nil, err
	}
	out := make([]*Role, 0, len(f.roles[guildID]))
	for _, r := range f.roles[guildID] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *Fake) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("react", messageID, emoji); err != nil {
		return err
	}
	f.addReaction(messageID, emoji, FakeBotID)
	return nil
}

func (f *Fake) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("unreact", messageID, emoji, userID); err != nil {
		return err
	}
	for _, r := range f.reactions[messageID] {
		if r.emoji == emoji {
			r.users = slices.DeleteFunc(r.users, func(u string) bool { return u == userID })
		}
	}
	return nil
}

func (f *Fake) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("member", userID); err != nil {
		return nil, err
	}
	if roles, ok := f.cached[memberKey(guildID, userID)]; ok {
		return slices.Clone(roles), nil
	}
	roles, ok := f.members[memberKey(guildID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(roles), nil
}

func (f *Fake) IsAdministrator(ctx context.Context, guildID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("admin", userID); err != nil {
		return false, err
	}
	return f.admins[memberKey(guildID, userID)], nil
}

func (f *Fake) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("grant", userID, roleID); err != nil {
		return err
	}
	key := memberKey(guildID, userID)
	if !slices.Contains(f.members[key], roleID) {
		f.members[key] = append(f.members[key], roleID)
	}
	return nil
}

func (f *Fake) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("revoke", userID, roleID); err != nil {
		return err
	}
	key := memberKey(guildID, userID)
	f.members[key] = slices.DeleteFunc(f.members[key], func(r string) bool { return r == roleID })
	return nil
}

var _ Platform = (*Fake)(nil)
