// Package config decodes a session's TOML configuration file: source
// descriptors, chunk sizing, breadcrumb parameters and filter defaults
// (spec.md §11 ambient stack).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

// SourceConfig describes one configured source+parser pairing, as the
// TOML file spells it out; Detail carries kind-specific fields (path,
// follow, command, args, port...) for registry.Registry.BuildSource/
// BuildParser to consume.
type SourceConfig struct {
	ID         uint16         `toml:"id"`
	SourceKind string         `toml:"source_kind"`
	ParserKind string         `toml:"parser_kind"`
	Detail     map[string]any `toml:"detail"`
}

// FilterDefaults holds filter defaults at the configuration layer
// (app and context whitelists and a minimum log level), before they're
// compiled into the runtime filter. It has no blacklist fields.
type FilterDefaults struct {
	AppWhitelist   []string `toml:"app_whitelist"`
	ContextWhitelist []string `toml:"context_whitelist"`
	MinLogLevel    string   `toml:"min_log_level"`
}

// Config is the full decoded session configuration.
type Config struct {
	Sources []SourceConfig `toml:"sources"`

	// ChunkSize is the number of rows grouped into one sessionfile.Chunk
	// (spec.md §3's "(row-range, byte-range)" indexing unit).
	ChunkSize      int    `toml:"chunk_size"`
	MinDistance    uint64 `toml:"breadcrumb_min_distance"`
	MinOffset      uint64 `toml:"breadcrumb_min_offset"`
	TimezoneOffset string `toml:"timezone_offset"`

	Filter FilterDefaults `toml:"filter"`

	SessionFilePath string `toml:"session_file_path"`
}

// Defaults mirrors the values session.State/producer assume when a
// field is left unset in the TOML file.
func Defaults() Config {
	return Config{
		ChunkSize:   64 * 1024,
		MinDistance: 4,
		MinOffset:   2,
	}
}

// Load reads and decodes path, filling unset fields from Defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural invariants: unique source ids, positive
// chunk size, and a well-formed timezone offset if one was given.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive")
	}
	seen := make(map[uint16]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("config: duplicate source id %d", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.SourceKind == "" || s.ParserKind == "" {
			return fmt.Errorf("config: source %d missing source_kind/parser_kind", s.ID)
		}
	}
	if c.TimezoneOffset != "" {
		if _, err := cast.ToDurationE(c.TimezoneOffset); err != nil {
			return fmt.Errorf("config: invalid timezone_offset %q: %w", c.TimezoneOffset, err)
		}
	}
	return nil
}
