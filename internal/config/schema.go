// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for hivepace.
package config

import (
	"time"

	"github.com/matthewhand/hivepace/internal/channel"
	"github.com/matthewhand/hivepace/internal/gateway"
	"github.com/matthewhand/hivepace/internal/ingest"
	"github.com/matthewhand/hivepace/internal/pacing"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Log configures structured logging output.
	Log LogConfig `yaml:"log"`

	// History configures the conversation traffic store.
	History HistoryConfig `yaml:"history"`

	// Pacing configures reply delay computation and delivery scheduling.
	Pacing pacing.Config `yaml:"pacing"`

	// Ingest configures the inbound message pipeline.
	Ingest ingest.Config `yaml:"ingest"`

	// Gateway configures the HTTP admin surface.
	Gateway gateway.Config `yaml:"gateway"`

	// Channels configures platform channel behavior.
	Channels ChannelConfig `yaml:"channels"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error". Empty means "info".
	Level string `yaml:"level"`

	// Format is "text" or "json". Empty means "text".
	Format string `yaml:"format"`
}

// HistoryConfig configures the sqlite traffic store.
type HistoryConfig struct {
	// Path is the sqlite database file. Empty disables persistence.
	Path string `yaml:"path"`

	// Retention is how long traffic entries are kept before the hourly
	// pruning job removes them. Zero keeps entries forever.
	Retention time.Duration `yaml:"retention"`
}

// ChannelConfig configures outbound chunking and sender filtering shared
// by all platform channels.
type ChannelConfig struct {
	Chunk channel.ChunkConfig `yaml:"chunk"`

	// AllowedUsers restricts which sender usernames may trigger replies.
	// Empty means everyone.
	AllowedUsers []string `yaml:"allowed_users,omitempty"`

	// AllowedGroups restricts which group chats may trigger replies.
	// Empty means all groups.
	AllowedGroups []string `yaml:"allowed_groups,omitempty"`
}
