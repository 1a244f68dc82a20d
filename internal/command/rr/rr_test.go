package rr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-roles/internal/command"
	"github.com/keshon/server-roles/internal/logger"
	"github.com/keshon/server-roles/internal/permissions"
	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/internal/reactionroles"
	"github.com/keshon/server-roles/internal/storage"
	"github.com/keshon/server-roles/pkg/cmd"
)

const (
	guild   = "g1"
	channel = "200"
	message = "100"
)

type allowAll struct{}

func (allowAll) CanExecute(context.Context, string, string, permissions.Node) (bool, error) {
	return true, nil
}

type env struct {
	fake  *platform.Fake
	store *storage.Storage
	disp  *command.Dispatcher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fake := platform.NewFake()
	fake.AddChannel(guild, channel)
	fake.AddMessage(guild, channel, message)
	fake.AddRole(guild, "301", "Red")
	fake.AddRole(guild, "302", "Green")

	svc := reactionroles.NewService(reactionroles.NewGateway(st, logger.Discard()), fake, logger.Discard())

	reg := cmd.NewRegistry()
	require.NoError(t, reg.Register(&EnableCommand{}))
	require.NoError(t, reg.Register(&SetCommand{}))
	require.NoError(t, reg.Register(&SetsCommand{}))

	disp, err := command.NewDispatcher(command.Deps{
		Platform: fake,
		Roles:    svc,
		Storage:  st,
		Registry: reg,
		Auth:     allowAll{},
		Log:      logger.Discard(),
	}, command.DefaultOptions())
	require.NoError(t, err)

	return &env{fake: fake, store: st, disp: disp}
}

// say dispatches content and returns the reply it produced.
func (e *env) say(t *testing.T, content string) string {
	t.Helper()
	before := len(e.fake.Sent)
	_ = e.disp.Dispatch(t.Context(), &platform.IncomingMessage{
		ID: "9", GuildID: guild, ChannelID: "500", AuthorID: "u1", Username: "kay", Content: content,
	})
	require.Len(t, e.fake.Sent, before+1, "expected one reply to %q", content)
	return e.fake.Sent[before].Content
}

func TestRRSet_AddAndList(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "Added 🟥 to `colors`.", e.say(t, "gb!rrset add colors 🟥 301"))
	assert.Equal(t, "Added 🟩 to `colors`.", e.say(t, "gb!rrset add colors 🟩 green"))
	assert.Equal(t, "Added <:blob:123> to `colors`.", e.say(t, "gb!rrset add colors <:blob:123> <@&301>"))

	assert.Equal(t,
		"**Reaction Roles in `colors`:**\n🟥 grants <@&301>\n🟩 grants <@&302>\n<:blob:123> grants <@&301>\n",
		e.say(t, "gb!rrset list colors"))

	rr, found, err := e.store.LoadReactionRoles(guild)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, storage.Entries{
		{React: "🟥", Role: "301"},
		{React: "🟩", Role: "302"},
		{React: "blob:123", Role: "301"},
	}, rr.Sets["colors"].Entries)
}

func TestRRSet_Errors(t *testing.T) {
	e := newEnv(t)
	e.say(t, "gb!rrset add colors 🟥 301")

	assert.Equal(t, "The 🟥 emoji is already in `colors`!", e.say(t, "gb!rrset add colors 🟥 302"))
	assert.Equal(t, "No such role `blue`.", e.say(t, "gb!rrset add colors 🟦 blue"))
	assert.Equal(t, "No such set `shapes`.", e.say(t, "gb!rrset list shapes"))
	assert.Equal(t, "The set `colors` doesn't have the emoji 🟦.", e.say(t, "gb!rrset update colors 🟦 301"))
	assert.Equal(t, "The set `colors` doesn't have the emoji 🟦.", e.say(t, "gb!rrset delete colors 🟦"))
	assert.Equal(t, "No such set `shapes`.", e.say(t, "gb!rrset drop shapes"))
}

func TestRRSet_AddKeycap(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "Added 1\uFE0F\u20E3 to `numbers`.", e.say(t, "gb!rrset add numbers 1\uFE0F\u20E3 301"))

	rr, _, err := e.store.LoadReactionRoles(guild)
	require.NoError(t, err)
	assert.Equal(t, storage.Entries{{React: "1\uFE0F\u20E3", Role: "301"}}, rr.Sets["numbers"].Entries)
}

func TestRRSet_RoleLookupFailure(t *testing.T) {
	e := newEnv(t)
	e.fake.Fail("role", errors.New("gateway timeout"))

	assert.Equal(t, "Something went wrong...", e.say(t, "gb!rrset add colors 🟥 301"))

	_, found, err := e.store.LoadReactionRoles(guild)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRRSet_MissingOptionalsEmitUsage(t *testing.T) {
	e := newEnv(t)
	usage := "**Usage:** `gb!rrset <cmd:add|update|delete|drop|list|togglex|create> <set:String> [react:Emoji] [role:Role]` - Manipulate rolesets for reaction menus."

	assert.Equal(t, usage, e.say(t, "gb!rrset add colors 🟥"))
	assert.Equal(t, usage, e.say(t, "gb!rrset delete colors"))
}

func TestRRSet_ParseError(t *testing.T) {
	e := newEnv(t)
	reply := e.say(t, "gb!rrset add")
	assert.Contains(t, reply, "Expected `set`:`String`, found 'END'")
	assert.Contains(t, reply, "**Usage:** `gb!rrset ")

	reply = e.say(t, "gb!rrset remove colors")
	assert.Contains(t, reply, "Expected `cmd`:`add|update|delete|drop|list|togglex|create`, found 'remove'")
}

func TestRRSet_UpdateDeleteDrop(t *testing.T) {
	e := newEnv(t)
	e.say(t, "gb!rrset add colors 🟥 301")
	e.say(t, "gb!rrset add colors 🟩 302")

	assert.Equal(t, "Updated <@&301> to <@&302> in `colors`", e.say(t, "gb!rrset update colors 🟥 Green"))
	assert.Equal(t, "Deleted 🟥 from `colors`.", e.say(t, "gb!rrset delete colors 🟥"))
	assert.Equal(t, "**Reaction Roles in `colors`:**\n🟩 grants <@&302>\n", e.say(t, "gb!rrset list colors"))

	assert.Equal(t, "Deleted 🟩 from `colors`.", e.say(t, "gb!rrset delete colors 🟩"))
	assert.Equal(t, "No such set `colors`.", e.say(t, "gb!rrset list colors"), "emptied set is dropped")

	e.say(t, "gb!rrset add shapes 🔺 301")
	assert.Equal(t, "Cleared the set shapes.", e.say(t, "gb!rrset drop shapes"))
	assert.Equal(t, "No such set `shapes`.", e.say(t, "gb!rrset list shapes"))
}

func TestRRSet_CreateAndToggle(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "Created the set `shapes`.", e.say(t, "gb!rrset create shapes"))
	assert.Equal(t, "The set `shapes` already exists.", e.say(t, "gb!rrset create shapes"))
	assert.Equal(t, "There are no items in the set `shapes`.", e.say(t, "gb!rrset list shapes"))

	assert.Equal(t, "The set `shapes` is now exclusive.", e.say(t, "gb!rrset togglex shapes"))
	rr, _, err := e.store.LoadReactionRoles(guild)
	require.NoError(t, err)
	assert.True(t, rr.Sets["shapes"].Exclusive)

	assert.Equal(t, "The set `shapes` is no longer exclusive.", e.say(t, "gb!rrset togglex shapes"))
}

func TestRRSet_PersistenceFailure(t *testing.T) {
	e := newEnv(t)
	e.say(t, "gb!rrset create colors")
	require.NoError(t, e.store.Close())

	assert.Equal(t, genericFailure, e.say(t, "gb!rrset add colors 🟥 301"))
}

func TestRREnable(t *testing.T) {
	e := newEnv(t)
	e.say(t, "gb!rrset add colors 🟥 301")
	e.say(t, "gb!rrset add colors 🟩 302")

	assert.Equal(t, "Bound `colors` to message `100` in <#200>.", e.say(t, "gb!rrenable <#200> 100 colors"))
	assert.Equal(t, []string{platform.FakeBotID}, e.fake.ReactionUsers(message, "🟥"))
	assert.Equal(t, []string{platform.FakeBotID}, e.fake.ReactionUsers(message, "🟩"))

	rr, _, err := e.store.LoadReactionRoles(guild)
	require.NoError(t, err)
	assert.Equal(t, storage.MessageBinding{Channel: channel, Roleset: "colors"}, rr.Messages[message])
}

func TestRREnable_Errors(t *testing.T) {
	e := newEnv(t)
	e.say(t, "gb!rrset add colors 🟥 301")
	e.fake.AddMessage(guild, channel, "101")
	e.fake.AddUserReaction("101", "👍", "u7")

	assert.Equal(t, "Invalid channel `<#999>`.", e.say(t, "gb!rrenable 999 100 colors"))
	assert.Equal(t, "Invalid message `555`.", e.say(t, "gb!rrenable 200 555 colors"))
	assert.Equal(t, "No such set `shapes`.", e.say(t, "gb!rrenable 200 100 shapes"))
	assert.Equal(t,
		"Existing reactions must be cleared before you can enable a new roleset for this message.",
		e.say(t, "gb!rrenable 200 101 colors"))

	e.say(t, "gb!rrenable 200 100 colors")
	e.fake.Sent = nil
	// The message now carries the bot's reactions, which is checked first.
	assert.Equal(t,
		"Existing reactions must be cleared before you can enable a new roleset for this message.",
		e.say(t, "gb!rrenable 200 100 colors"))

	rr, _, err := e.store.LoadReactionRoles(guild)
	require.NoError(t, err)
	assert.NotContains(t, rr.Messages, "101")
}

func TestRRSets(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "There are no rolesets on this server.", e.say(t, "gb!rrsets"))

	e.say(t, "gb!rrset add colors 🟥 301")
	e.say(t, "gb!rrset create shapes")
	e.say(t, "gb!rrset togglex shapes")
	e.say(t, "gb!rrenable 200 100 colors")

	assert.Equal(t,
		"**Rolesets:**\n`colors` (1 entries)\n`shapes` (0 entries, exclusive)\n**Bound messages:**\n`100` in <#200> uses `colors`\n",
		e.say(t, "gb!rrsets"))
}
