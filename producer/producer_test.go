package producer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/esrlabs/chipmunk-core/source"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// mockSource hands out fixed-size chunks of 'x' bytes, one per Load
// call, then returns io.EOF forever after.
type mockSource struct {
	chunks [][]byte
	idx    int
	cur    []byte
}

func (m *mockSource) Load(ctx context.Context) (source.ReloadInfo, error) {
	select {
	case <-ctx.Done():
		return source.ReloadInfo{}, ctx.Err()
	default:
	}
	if m.idx >= len(m.chunks) {
		return source.ReloadInfo{}, io.EOF
	}
	m.cur = m.chunks[m.idx]
	m.idx++
	return source.ReloadInfo{Loaded: len(m.cur)}, nil
}

func (m *mockSource) CurrentSlice() []byte { return m.cur }
func (m *mockSource) Consume(n int)        { m.cur = nil }
func (m *mockSource) Close() error         { return nil }

// fixedParser consumes exactly n bytes per call and always succeeds,
// regardless of content, producing a synthetic message each time.
type fixedParser struct {
	n int
}

func (f *fixedParser) Parse(buf []byte, tsHint *time.Time) ([]byte, parser.Yield, error) {
	if len(buf) < f.n {
		return buf, parser.Yield{}, parser.ErrIncomplete
	}
	return buf[f.n:], parser.Yield{Message: &msgrec.Message{}}, nil
}

func TestReadNextSegmentDeliversThenDone(t *testing.T) {
	src := &mockSource{chunks: [][]byte{[]byte("aaaaa"), []byte("bbbb"), []byte("cccccc")}}
	p := New(&fixedParser{n: 5}, src, nil)
	defer p.Close()

	ctx := context.Background()
	var gotMessages int
	var gotDone bool
	for i := 0; i < 10; i++ {
		items, err := p.ReadNextSegment(ctx)
		require.NoError(t, err)
		if items == nil {
			break
		}
		for _, it := range items {
			if it.Done {
				gotDone = true
			} else if it.Message != nil {
				gotMessages++
			}
		}
	}
	require.True(t, gotDone)
	require.GreaterOrEqual(t, gotMessages, 1)
}

func TestReadNextSegmentCancelSafe(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &mockSource{chunks: [][]byte{[]byte("aaaaa")}}
	p := New(&fixedParser{n: 5}, src, nil)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the underlying source has nothing buffered yet, so ReadNextSegment
	// must block on Load and observe the already-cancelled context
	// instead of panicking or leaking the Load goroutine.
	items, err := p.ReadNextSegment(ctx)
	require.Nil(t, items)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInitialParseErrorLimitGivesUp(t *testing.T) {
	chunks := make([][]byte, InitialParseErrorLimit+2)
	for i := range chunks {
		chunks[i] = []byte("x")
	}
	src := &mockSource{chunks: chunks}
	p := New(parser.Func(func(buf []byte, tsHint *time.Time) ([]byte, parser.Yield, error) {
		return buf[1:], parser.Yield{}, parser.NewParseError(errBoom, 1)
	}), src, nil)
	defer p.Close()

	_, err := p.ReadNextSegment(context.Background())
	require.Error(t, err)
}

var errBoom = parseBoom{}

type parseBoom struct{}

func (parseBoom) Error() string { return "boom" }
