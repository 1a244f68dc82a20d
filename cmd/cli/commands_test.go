package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-roles/internal/storage"
)

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	store, err := storage.New(path, storage.Options{})
	require.NoError(t, err)

	require.NoError(t, store.SaveReactionRoles("g1", storage.ReactionRoles{
		Sets: map[string]storage.RoleSet{
			"colors": {Exclusive: true, Entries: storage.Entries{{React: "🔴", Role: "301"}, {React: "🟢", Role: "302"}}},
		},
		Messages: map[string]storage.MessageBinding{
			"100": {Channel: "200", Roleset: "colors"},
		},
	}))
	require.NoError(t, store.AppendCommandHistory("g1", storage.CommandHistory{
		Username: "alice", Command: "rrset", Param: "add", Datetime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	require.NoError(t, store.Close())
	return path
}

func run(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newApp().rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--storage", path}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCLI_Inspect(t *testing.T) {
	path := seedStore(t)

	out, err := run(t, path, "guilds")
	require.NoError(t, err)
	assert.Equal(t, "g1\n", out)

	out, err = run(t, path, "sets", "g1")
	require.NoError(t, err)
	assert.Equal(t, "colors (exclusive)\n  🔴 -> 301\n  🟢 -> 302\n", out)

	out, err = run(t, path, "bindings", "g1")
	require.NoError(t, err)
	assert.Equal(t, "100 in 200 -> colors\n", out)

	out, err = run(t, path, "history", "g1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 03:04:05  alice  rrset add\n", out)

	out, err = run(t, path, "sets", "g2")
	require.NoError(t, err)
	assert.Equal(t, "no rolesets\n", out)
}

func TestCLI_Repair(t *testing.T) {
	path := seedStore(t)

	out, err := run(t, path, "unbind", "g1", "100")
	require.NoError(t, err)
	assert.Equal(t, "unbound 100 from colors\n", out)

	out, err = run(t, path, "bindings", "g1")
	require.NoError(t, err)
	assert.Equal(t, "no bindings\n", out)

	_, err = run(t, path, "drop-set", "g1", "colors")
	require.NoError(t, err)

	out, err = run(t, path, "sets", "g1")
	require.NoError(t, err)
	assert.Equal(t, "no rolesets\n", out)

	_, err = run(t, path, "drop-set", "g1", "colors")
	assert.Error(t, err)

	_, err = run(t, path, "unbind", "g1", "missing")
	assert.Error(t, err)
}
