package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaultsAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	body := `
chunk_size = 4096

[[sources]]
id = 1
source_kind = "file"
parser_kind = "text"
detail = { path = "/var/log/syslog" }
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4096, cfg.ChunkSize)
	require.Equal(t, uint64(4), cfg.MinDistance)
	require.Len(t, cfg.Sources, 1)
	require.Equal(t, "/var/log/syslog", cfg.Sources[0].Detail["path"])
}

func TestValidateRejectsDuplicateSourceIDs(t *testing.T) {
	cfg := Defaults()
	cfg.Sources = []SourceConfig{
		{ID: 1, SourceKind: "file", ParserKind: "text"},
		{ID: 1, SourceKind: "file", ParserKind: "text"},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveChunkSize(t *testing.T) {
	cfg := Defaults()
	cfg.ChunkSize = 0
	require.Error(t, cfg.Validate())
}
