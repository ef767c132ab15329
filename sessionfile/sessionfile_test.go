package sessionfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFlushAndUpdateSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.WriteText(1, "alpha")
	require.NoError(t, err)
	_, err = w.WriteText(1, "beta")
	require.NoError(t, err)
	_, err = w.WriteText(2, "gamma")
	require.NoError(t, err)

	rows, err := w.UpdateSession()
	require.NoError(t, err)
	require.Equal(t, 3, rows)

	from, to, ok := w.Index().Range(1)
	require.True(t, ok)
	require.Greater(t, to, from)

	bySource := w.BytesBySource()
	require.Equal(t, int64(len("alpha\n")+len("beta\n")), bySource[1])
}

func TestChunksGroupRowsByConfiguredSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := Open(path, WithChunkSize(2))
	require.NoError(t, err)
	defer w.Close()

	for _, l := range []string{"A", "B", "C", "D"} {
		_, err := w.WriteText(1, l)
		require.NoError(t, err)
	}
	rows, err := w.UpdateSession()
	require.NoError(t, err)
	require.Equal(t, 4, rows)

	require.Equal(t, 2, w.Index().ChunkCount())
	chunks := w.Index().Chunks()
	require.Len(t, chunks, 2)
	require.Equal(t, RowRange{From: 0, To: 1}, chunks[0].Rows)
	require.Equal(t, RowRange{From: 2, To: 3}, chunks[1].Rows)
	require.Equal(t, chunks[0].Bytes.To, chunks[1].Bytes.From)
	require.Equal(t, int64(len("A\nB\nC\nD\n")), chunks[1].Bytes.To)
}

func TestExportWithColumnSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	lines := []string{"a\x04b\x04c", "d\x04e\x04f", "g\x04h\x04i"}
	for _, l := range lines {
		_, err := w.WriteText(1, l)
		require.NoError(t, err)
	}
	rows, err := w.UpdateSession()
	require.NoError(t, err)
	require.Equal(t, 3, rows)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	n, err := Export(context.Background(), w, ExportRequest{
		OutPath:   outPath,
		Ranges:    []RowRange{{From: 0, To: 2}},
		Columns:   []int{2, 0},
		Splitter:  0x04,
		Delimiter: ",",
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "c,a\nf,d\ni,g\n", string(out))
}

func TestExportVerbatimWithoutSplitter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.WriteText(1, "plain line one")
	require.NoError(t, err)
	_, err = w.WriteText(1, "plain line two")
	require.NoError(t, err)
	_, err = w.UpdateSession()
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.txt")
	n, err := Export(context.Background(), w, ExportRequest{
		OutPath: outPath,
		Ranges:  []RowRange{{From: 0, To: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "plain line one\nplain line two\n", string(out))
}

func TestExportCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		_, err := w.WriteText(1, "row")
		require.NoError(t, err)
	}
	_, err = w.UpdateSession()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outPath := filepath.Join(t.TempDir(), "out.txt")
	_, err = Export(ctx, w, ExportRequest{OutPath: outPath, Ranges: []RowRange{{From: 0, To: 4}}})
	require.Error(t, err)
}
