package source

import (
	"context"

	"go.bug.st/serial"
)

// SerialSource reads from a serial port and accepts SDE write-back
// (spec.md §1: "serial port" source; a serial port is naturally
// bidirectional so it also implements Writable). Reads run on a
// single persistent background goroutine (asyncReader) instead of one
// per Load call, so a cancelled Load abandons only the caller's wait
// on the next chunk, never the in-flight port.Read, and two Load
// calls in a row can never race the same goroutine against Consume.
type SerialSource struct {
	buffer
	port   serial.Port
	reader *asyncReader
}

// OpenSerial opens portName with mode and returns a SerialSource.
func OpenSerial(portName string, mode *serial.Mode) (*SerialSource, error) {
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return &SerialSource{port: port, reader: newAsyncReader(port, 4096)}, nil
}

func (s *SerialSource) Load(ctx context.Context) (ReloadInfo, error) {
	buf, err := s.reader.next(ctx)
	if len(buf) > 0 {
		s.append(buf)
	}
	if err != nil {
		return ReloadInfo{Loaded: len(buf)}, err
	}
	return ReloadInfo{Loaded: len(buf)}, nil
}

// Income writes an SDE request's bytes to the serial port (spec.md
// §4.1).
func (s *SerialSource) Income(ctx context.Context, req SdeRequest) (SdeResponse, error) {
	payload := req.WriteBytes
	if payload == nil {
		payload = []byte(req.WriteText)
	}
	n, err := s.port.Write(payload)
	return SdeResponse{Bytes: n}, err
}

func (s *SerialSource) Close() error {
	return s.port.Close()
}
