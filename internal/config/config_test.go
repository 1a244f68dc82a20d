package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Equal(t, []string{"gb!"}, cfg.Prefixes)
	assert.True(t, cfg.AllowLeadingWhitespace)
	assert.Equal(t, 10*time.Second, cfg.PlatformTimeout)
	assert.Equal(t, 10*time.Second, cfg.AutoSaveInterval)
	assert.Equal(t, 3, cfg.BackupCount)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.InitConcurrency)
	assert.Empty(t, cfg.PermissionGrants)
	assert.False(t, cfg.IsDeveloper(""))
}

func TestParse_RequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	_, err := Parse()
	assert.Error(t, err)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("COMMAND_PREFIXES", "g!, g!!,g!")
	t.Setenv("ALLOW_LEADING_WHITESPACE", "false")
	t.Setenv("DEVELOPER_ID", "42")
	t.Setenv("PERMISSION_GRANTS", "gagbot:reactionroles:roleset:r1|r2, gagbot:reactionroles:message:r3")
	t.Setenv("PLATFORM_TIMEOUT", "3s")
	t.Setenv("INIT_CONCURRENCY", "0")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"g!", "g!!"}, cfg.Prefixes)
	assert.False(t, cfg.AllowLeadingWhitespace)
	assert.True(t, cfg.IsDeveloper("42"))
	assert.False(t, cfg.IsDeveloper("43"))
	assert.Equal(t, []string{"r1", "r2"}, cfg.PermissionGrants.Roles("gagbot:reactionroles:roleset"))
	assert.Equal(t, []string{"r3"}, cfg.PermissionGrants.Roles("gagbot:reactionroles:message"))
	assert.Equal(t, 3*time.Second, cfg.PlatformTimeout)
	assert.Equal(t, 1, cfg.InitConcurrency)
}

func TestParse_InvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"malformed grant", "PERMISSION_GRANTS", "noroles"},
		{"empty prefixes", "COMMAND_PREFIXES", " , "},
		{"bad timeout", "PLATFORM_TIMEOUT", "soon"},
		{"zero timeout", "PLATFORM_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DISCORD_TOKEN", "token")
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
