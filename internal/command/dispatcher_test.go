package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-roles/internal/logger"
	"github.com/keshon/server-roles/internal/permissions"
	"github.com/keshon/server-roles/internal/platform"
	"github.com/keshon/server-roles/pkg/cmd"
)

type recorder struct {
	name   string
	schema cmd.Schema
	result error
	calls  []*cmd.Invocation
}

func (r *recorder) Name() string            { return r.name }
func (r *recorder) Description() string     { return r.name + " things" }
func (r *recorder) PermissionNode() string  { return "test:" + r.name }
func (r *recorder) PermissionDefault() bool { return true }
func (r *recorder) Schema() cmd.Schema      { return r.schema }
func (r *recorder) Run(ctx context.Context, inv *cmd.Invocation) error {
	r.calls = append(r.calls, inv)
	return r.result
}

type allowList map[string]bool

func (a allowList) CanExecute(ctx context.Context, guildID, userID string, c permissions.Node) (bool, error) {
	return a[userID], nil
}

type harness struct {
	fake *platform.Fake
	disp *Dispatcher
	cmds map[string]*recorder
}

func newHarness(t *testing.T, opts Options, cmds ...*recorder) *harness {
	t.Helper()
	reg := cmd.NewRegistry()
	h := &harness{fake: platform.NewFake(), cmds: map[string]*recorder{}}
	for _, c := range cmds {
		require.NoError(t, reg.Register(c))
		h.cmds[c.name] = c
	}
	d, err := NewDispatcher(Deps{
		Platform: h.fake,
		Registry: reg,
		Auth:     allowList{"u1": true},
		Log:      logger.Discard(),
	}, opts)
	require.NoError(t, err)
	h.disp = d
	return h
}

func msg(content string) *platform.IncomingMessage {
	return &platform.IncomingMessage{ID: "m1", GuildID: "g1", ChannelID: "c1", AuthorID: "u1", Username: "kay", Content: content}
}

func (h *harness) replies() []string {
	out := make([]string, 0, len(h.fake.Sent))
	for _, s := range h.fake.Sent {
		out = append(out, s.Content)
	}
	return out
}

func TestMatchPrefix(t *testing.T) {
	tests := []struct {
		content  string
		prefixes []string
		want     string
	}{
		{"g!!ping", []string{"g!", "g!!"}, "g!!"},
		{"g!!ping", []string{"g!!", "g!"}, "g!!"},
		{"g!ping", []string{"g!", "g!!"}, "g!"},
		{"ping", []string{"g!", "g!!"}, ""},
		{"gb!help", []string{"", "gb!"}, "gb!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPrefix(tt.content, tt.prefixes), tt.content)
	}
}

func TestDispatch_LongestPrefixWins(t *testing.T) {
	ping := &recorder{name: "ping", schema: cmd.NoArgs}
	h := newHarness(t, Options{Prefixes: []string{"g!", "g!!"}}, ping)

	require.NoError(t, h.disp.Dispatch(t.Context(), msg("g!!ping")))
	require.Len(t, ping.calls, 1)

	mc, ok := FromInvocation(ping.calls[0])
	require.True(t, ok)
	assert.Equal(t, "g!!", mc.Prefix)
	assert.NotEmpty(t, mc.InvocationID)
}

func TestDispatch_Ignored(t *testing.T) {
	ping := &recorder{name: "ping", schema: cmd.NoArgs}

	tests := []struct {
		name string
		opts Options
		msg  *platform.IncomingMessage
	}{
		{"no prefix", DefaultOptions(), msg("ping")},
		{"only prefix", DefaultOptions(), msg("gb!   ")},
		{"unknown command", DefaultOptions(), msg("gb!pong")},
		{"leading whitespace not allowed", Options{Prefixes: []string{"gb!"}}, msg("gb! ping")},
		{"bot author", DefaultOptions(), &platform.IncomingMessage{GuildID: "g1", AuthorID: "u1", AuthorBot: true, Content: "gb!ping"}},
		{"permission denied", DefaultOptions(), &platform.IncomingMessage{GuildID: "g1", ChannelID: "c1", AuthorID: "u2", Content: "gb!ping"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ping.calls = nil
			h := newHarness(t, tt.opts, ping)
			require.NoError(t, h.disp.Dispatch(t.Context(), tt.msg))
			assert.Empty(t, ping.calls)
			assert.Empty(t, h.fake.Sent)
		})
	}
}

func TestDispatch_LeadingWhitespaceAllowed(t *testing.T) {
	ping := &recorder{name: "ping", schema: cmd.NoArgs}
	h := newHarness(t, DefaultOptions(), ping)

	require.NoError(t, h.disp.Dispatch(t.Context(), msg("gb!   ping")))
	assert.Len(t, ping.calls, 1)
}

func TestDispatch_ParsesArguments(t *testing.T) {
	set := &recorder{name: "rrset", schema: cmd.Params(
		cmd.P("cmd", cmd.Choice("add", "list")),
		cmd.P("set", cmd.Str),
		cmd.P("react", cmd.Optional(cmd.Emoji)),
		cmd.P("role", cmd.Optional(cmd.Role)),
	)}
	h := newHarness(t, DefaultOptions(), set)

	require.NoError(t, h.disp.Dispatch(t.Context(), msg("gb!rrset add myset 🎉 role123")))
	require.Len(t, set.calls, 1)

	args := set.calls[0].Args
	assert.Equal(t, "add", args.String("cmd"))
	assert.Equal(t, "myset", args.String("set"))
	assert.Equal(t, "🎉", args.String("react"))
	assert.Equal(t, "role123", args.String("role"))
}

func TestDispatch_ParseErrorRepliesWithUsage(t *testing.T) {
	echo := &recorder{name: "echo", schema: cmd.Params(cmd.P("n", cmd.Int))}
	h := newHarness(t, DefaultOptions(), echo)

	err := h.disp.Dispatch(t.Context(), msg("gb!echo five"))
	var pe *cmd.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, echo.calls)

	assert.Equal(t, []string{
		"Expected `n`:`Integer`, found 'five'\n**Usage:** `gb!echo <n:Integer>` - echo things",
	}, h.replies())
}

func TestDispatch_NoArgsError(t *testing.T) {
	echo := &recorder{name: "echo", schema: cmd.Params(cmd.P("n", cmd.Int))}
	h := newHarness(t, DefaultOptions(), echo)

	err := h.disp.Dispatch(t.Context(), msg("gb!echo"))
	var na *cmd.NoArgsError
	require.ErrorAs(t, err, &na)
	assert.Equal(t, "Command 'echo' can't be called without args.", err.Error())
}

func TestDispatch_NotHandledEmitsUsage(t *testing.T) {
	echo := &recorder{name: "echo", schema: cmd.Params(cmd.P("word", cmd.Str)), result: cmd.ErrNotHandled}
	h := newHarness(t, Options{Prefixes: []string{"g!"}}, echo)

	require.NoError(t, h.disp.Dispatch(t.Context(), msg("g!echo hi")))
	assert.Equal(t, []string{"**Usage:** `g!echo <word:String>` - echo things"}, h.replies())
}

func TestDispatch_CommandErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	echo := &recorder{name: "echo", schema: cmd.Untyped(), result: boom}
	h := newHarness(t, DefaultOptions(), echo)

	err := h.disp.Dispatch(t.Context(), msg("gb!echo"))
	assert.ErrorIs(t, err, boom)
}

func TestNewDispatcher_Validates(t *testing.T) {
	_, err := NewDispatcher(Deps{Platform: platform.NewFake(), Registry: cmd.NewRegistry(), Auth: allowList{}}, Options{})
	assert.Error(t, err)

	_, err = NewDispatcher(Deps{}, DefaultOptions())
	assert.Error(t, err)
}
