package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/esrlabs/chipmunk-core/sessionfile"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T) *Api {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.log")
	w, err := sessionfile.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	api := NewState(Options{
		Writer:     w,
		Bus:        NewBus(16),
		Breadcrumb: BreadcrumbParams{MinDistance: 2, MinOffset: 1},
	})
	return api
}

func TestAddSourceRejectsDuplicates(t *testing.T) {
	api := newTestApi(t)
	require.NoError(t, api.AddSource(SourceDescriptor{SourceID: 1, SourceKind: "file"}))
	require.Error(t, api.AddSource(SourceDescriptor{SourceID: 1, SourceKind: "file"}))

	defs, err := api.GetSourcesDefinitions()
	require.NoError(t, err)
	require.Len(t, defs, 1)
}

func TestWriteFlushUpdateAndGrab(t *testing.T) {
	api := newTestApi(t)
	require.NoError(t, api.AddSource(SourceDescriptor{SourceID: 1, SourceKind: "file"}))

	require.NoError(t, api.WriteSessionFile(1, "first line"))
	require.NoError(t, api.WriteSessionFile(1, "second line"))
	require.NoError(t, api.FlushSessionFile())

	rows, err := api.UpdateSession(1)
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	streamLen, err := api.GetStreamLen()
	require.NoError(t, err)
	require.Equal(t, uint64(2), streamLen)

	grabbed, err := api.Grab(context.Background(), RowRange{From: 0, To: 1})
	require.NoError(t, err)
	require.Len(t, grabbed, 2)
	require.Equal(t, "first line", grabbed[0].Line)
	require.Equal(t, "second line", grabbed[1].Line)
}

func TestShutdownDrainsQueueAndClosesChannel(t *testing.T) {
	api := newTestApi(t)
	require.NoError(t, api.AddSource(SourceDescriptor{SourceID: 1, SourceKind: "file"}))
	require.NoError(t, api.Shutdown())

	_, err := api.GetStreamLen()
	require.Error(t, err)
}

func TestCloseSessionCancelsTrackedOperations(t *testing.T) {
	api := newTestApi(t)
	id, ctx := api.Tracker().Start(context.Background(), "test")
	require.NoError(t, api.CloseSession())

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected operation context to be cancelled")
	}
	_ = id
}
