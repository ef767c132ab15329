package source

import (
	"context"
	"net"
)

// SocketSource reads from an already-connected net.Conn: TCP, UDP (via
// net.ListenUDP+ReadFrom wrapped in a net.Conn-shaped adapter by the
// caller) or Unix domain socket (spec.md §1). Reads run on a single
// persistent background goroutine (asyncReader) so that a cancelled
// Load only abandons the caller's wait, never the in-flight conn.Read;
// the socket has no per-call way to interrupt a blocking Read short of
// closing it outright, which Close already does on teardown.
type SocketSource struct {
	buffer
	conn   net.Conn
	reader *asyncReader
}

// NewSocketSource wraps conn. readSize bounds a single Read's chunk
// size; 0 selects a sensible default.
func NewSocketSource(conn net.Conn, readSize int) *SocketSource {
	if readSize <= 0 {
		readSize = 64 * 1024
	}
	return &SocketSource{conn: conn, reader: newAsyncReader(conn, readSize)}
}

func (s *SocketSource) Load(ctx context.Context) (ReloadInfo, error) {
	buf, err := s.reader.next(ctx)
	if len(buf) > 0 {
		s.append(buf)
	}
	if err != nil {
		return ReloadInfo{Loaded: len(buf)}, err
	}
	return ReloadInfo{Loaded: len(buf)}, nil
}

// Income implements source.Writable: a UDP/TCP socket used as a
// write-back channel for SDE requests (spec.md §4.1).
func (s *SocketSource) Income(ctx context.Context, req SdeRequest) (SdeResponse, error) {
	payload := req.WriteBytes
	if payload == nil {
		payload = []byte(req.WriteText)
	}
	n, err := s.conn.Write(payload)
	return SdeResponse{Bytes: n}, err
}

func (s *SocketSource) Close() error {
	return s.conn.Close()
}
