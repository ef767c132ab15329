package source

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blockingReader blocks on Read until unblock is closed, then returns
// chunk on every call.
type blockingReader struct {
	unblock chan struct{}
	chunk   []byte
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.unblock
	n := copy(p, r.chunk)
	return n, nil
}

func TestAsyncReaderCancelLeavesPendingResultForNextCall(t *testing.T) {
	br := &blockingReader{unblock: make(chan struct{})}
	ar := newAsyncReader(br, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf, err := ar.next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, buf)

	br.chunk = []byte("hello")
	close(br.unblock)

	buf, err = ar.next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
}

type eofReader struct{}

func (eofReader) Read(p []byte) (int, error) { return 0, io.EOF }

func TestAsyncReaderReturnsTerminalErrorRepeatedly(t *testing.T) {
	ar := newAsyncReader(eofReader{}, 16)

	_, err := ar.next(context.Background())
	require.ErrorIs(t, err, io.EOF)

	// A second call must not block waiting on the now-abandoned
	// goroutine; it should replay the terminal error immediately.
	done := make(chan error, 1)
	go func() {
		_, err := ar.next(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		require.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("next blocked after terminal error")
	}
}
