package source

import (
	"bufio"
	"context"
	"io"
	"os/exec"
)

// ProcessSource launches a child process and streams its combined
// stdout/stderr as the byte source, while stdin is wired up as the SDE
// write-back channel (spec.md §1: "process stdout" source). Reads run
// on a single persistent background goroutine (asyncReader): stdout
// has no ctx-aware Read, so a cancelled Load abandons only the
// caller's wait, never the in-flight pipe read, which Close's
// stdout.Close() is what actually unblocks on teardown.
type ProcessSource struct {
	buffer
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stdin  io.WriteCloser
	reader *asyncReader
}

// StartProcess starts name with args, piping stdout (and stderr, merged
// into the same stream) and stdin.
func StartProcess(ctx context.Context, name string, args ...string) (*ProcessSource, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &ProcessSource{cmd: cmd, stdout: stdout, stdin: stdin, reader: newAsyncReader(bufio.NewReader(stdout), 4096)}, nil
}

func (s *ProcessSource) Load(ctx context.Context) (ReloadInfo, error) {
	buf, err := s.reader.next(ctx)
	if len(buf) > 0 {
		s.append(buf)
	}
	if err != nil {
		return ReloadInfo{Loaded: len(buf)}, err
	}
	return ReloadInfo{Loaded: len(buf)}, nil
}

// Income writes an SDE request to the child process's stdin.
func (s *ProcessSource) Income(ctx context.Context, req SdeRequest) (SdeResponse, error) {
	payload := req.WriteBytes
	if payload == nil {
		payload = []byte(req.WriteText)
	}
	n, err := s.stdin.Write(payload)
	return SdeResponse{Bytes: n}, err
}

func (s *ProcessSource) Close() error {
	s.stdin.Close()
	s.stdout.Close()
	return s.cmd.Wait()
}
