// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Grants maps a permission node to the role ids allowed to use it.
//
//	PERMISSION_GRANTS=gagbot:reactionroles:roleset:111|222,gagbot:reactionroles:message:111
type Grants map[string][]string

func (g *Grants) UnmarshalText(text []byte) error {
	out := Grants{}
	for _, pair := range strings.Split(string(text), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		i := strings.LastIndex(pair, ":")
		if i <= 0 || i == len(pair)-1 {
			return fmt.Errorf("invalid grant %q, want node:role|role", pair)
		}
		node := pair[:i]
		for _, role := range strings.Split(pair[i+1:], "|") {
			if role = strings.TrimSpace(role); role != "" {
				out[node] = append(out[node], role)
			}
		}
	}
	*g = out
	return nil
}

// Roles returns the role ids granted node.
func (g Grants) Roles(node string) []string { return g[node] }

type Config struct {
	DiscordToken           string        `env:"DISCORD_TOKEN,required,notEmpty"`
	StoragePath            string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	Prefixes               []string      `env:"COMMAND_PREFIXES" envDefault:"gb!" envSeparator:","`
	AllowLeadingWhitespace bool          `env:"ALLOW_LEADING_WHITESPACE" envDefault:"true"`
	DeveloperID            string        `env:"DEVELOPER_ID"`
	PermissionGrants       Grants        `env:"PERMISSION_GRANTS"`
	PlatformTimeout        time.Duration `env:"PLATFORM_TIMEOUT" envDefault:"10s"`
	AutoSaveInterval       time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"10s"`
	BackupCount            int           `env:"BACKUP_COUNT" envDefault:"3"`
	LogLevel               string        `env:"LOG_LEVEL" envDefault:"info"`
	InitConcurrency        int           `env:"INIT_CONCURRENCY" envDefault:"4"`
}

// Load reads .env if present and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return cfg.normalize()
}

func (c Config) normalize() (*Config, error) {
	prefixes := make([]string, 0, len(c.Prefixes))
	for _, p := range c.Prefixes {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(prefixes, p) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return nil, errors.New("COMMAND_PREFIXES must name at least one prefix")
	}
	c.Prefixes = prefixes

	if c.PlatformTimeout <= 0 {
		return nil, fmt.Errorf("PLATFORM_TIMEOUT must be positive, got %s", c.PlatformTimeout)
	}
	if c.BackupCount < 0 {
		c.BackupCount = 0
	}
	if c.InitConcurrency <= 0 {
		c.InitConcurrency = 1
	}
	if c.PermissionGrants == nil {
		c.PermissionGrants = Grants{}
	}
	return &c, nil
}

// IsDeveloper reports whether userID is the configured developer.
func (c *Config) IsDeveloper(userID string) bool {
	return c.DeveloperID != "" && c.DeveloperID == userID
}
