package source

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSourceNonFollowEOF(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "src-*.txt")
	require.NoError(t, err)
	_, err = f.WriteString("hello world")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	src, err := OpenFile(f.Name(), false)
	require.NoError(t, err)
	defer src.Close()

	info, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 11, info.Loaded)
	require.Equal(t, []byte("hello world"), src.CurrentSlice())

	src.Consume(5)
	require.Equal(t, []byte(" world"), src.CurrentSlice())

	_, err = src.Load(context.Background())
	require.ErrorIs(t, err, io.EOF)
}
