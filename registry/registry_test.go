package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultBuildsFileSourceAndTextParser(t *testing.T) {
	r := Default()

	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	src, err := r.BuildSource(context.Background(), "file", map[string]any{"path": path})
	require.NoError(t, err)
	defer src.Close()

	p, err := r.BuildParser("text", nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestUnknownKindErrors(t *testing.T) {
	r := Default()
	_, err := r.BuildSource(context.Background(), "nope", nil)
	require.Error(t, err)
	_, err = r.BuildParser("nope", nil)
	require.Error(t, err)
}

func TestRegisterAfterFreezePanics(t *testing.T) {
	r := Default()
	require.Panics(t, func() {
		r.RegisterSource("extra", nil)
	})
}
