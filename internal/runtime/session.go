// Package runtime runs external toolchain commands (board compilers,
// uploaders, cloud CLIs) and turns their terminal output into log lines.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/aymanbagabas/go-pty"
)

// Status represents the current state of a tool session.
type Status string

const (
	// StatusIdle indicates the session has not started.
	StatusIdle Status = "idle"
	// StatusRunning indicates the tool is running.
	StatusRunning Status = "running"
	// StatusStopped indicates the tool has exited or was stopped.
	StatusStopped Status = "stopped"
	// StatusError indicates the tool could not be started.
	StatusError Status = "error"
)

const drainTimeout = 500 * time.Millisecond

// PTYSession runs one command attached to a pseudo terminal so tools that
// draw progress bars behave as they would in a terminal.
type PTYSession struct {
	id      string
	cmd     *exec.Cmd
	pCmd    *pty.Cmd
	ptmx    pty.Pty
	output  chan []byte
	done    chan struct{}
	exited  chan struct{}
	drained chan struct{}
	status  Status
	mu      sync.RWMutex
	cancel  context.CancelFunc
	exitErr error
	buffer  *RingBuffer
	rows    uint16
	cols    uint16
}

// NewPTYSession creates a new PTY session for cmd.
func NewPTYSession(id string, cmd *exec.Cmd) *PTYSession {
	return &PTYSession{
		id:      id,
		cmd:     cmd,
		output:  make(chan []byte, 256),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		drained: make(chan struct{}),
		status:  StatusIdle,
		buffer:  NewRingBuffer(256 * 1024),
		rows:    ScreenRows,
		cols:    ScreenCols,
	}
}

// ID returns the session identifier.
func (s *PTYSession) ID() string {
	return s.id
}

// Start launches the command. The context stops the command when cancelled.
func (s *PTYSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRunning {
		return errors.New("session already running")
	}

	ptmx, err := pty.New()
	if err != nil {
		s.status = StatusError
		return fmt.Errorf("failed to create pty: %w", err)
	}
	s.ptmx = ptmx

	// pty.Resize takes (width, height)
	_ = s.ptmx.Resize(int(s.cols), int(s.rows))

	commander, ok := ptmx.(interface{ Command(string, ...string) *pty.Cmd })
	if !ok {
		_ = ptmx.Close()
		s.status = StatusError
		return errors.New("pty implementation does not support Command creation")
	}
	s.pCmd = commander.Command(s.cmd.Path, args(s.cmd)...)
	s.pCmd.Env = s.cmd.Env
	s.pCmd.Dir = s.cmd.Dir

	if err := s.pCmd.Start(); err != nil {
		_ = ptmx.Close()
		s.status = StatusError
		s.exitErr = fmt.Errorf("start failed: %s: %w", formatCmd(s.cmd), err)
		return s.exitErr
	}
	s.status = StatusRunning

	var runCtx context.Context
	runCtx, s.cancel = context.WithCancel(ctx)

	go s.readLoop()
	go s.waitLoop()
	go func() {
		select {
		case <-runCtx.Done():
			_ = s.Stop()
		case <-s.exited:
		}
	}()

	return nil
}

func formatCmd(cmd *exec.Cmd) string {
	if cmd == nil {
		return ""
	}
	if len(cmd.Args) > 0 {
		return strings.Join(cmd.Args, " ")
	}
	return cmd.Path
}

// readLoop copies PTY output into the history buffer and the output channel
// until the terminal closes.
func (s *PTYSession) readLoop() {
	defer close(s.drained)
	defer close(s.output)

	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			_, _ = s.buffer.Write(data)

			select {
			case s.output <- data:
			case <-s.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// waitLoop records the exit status. The terminal is closed once readLoop has
// drained it, or after drainTimeout when a detached child keeps it open.
func (s *PTYSession) waitLoop() {
	err := s.pCmd.Wait()

	s.mu.Lock()
	s.exitErr = err
	if s.status == StatusRunning {
		s.status = StatusStopped
	}
	s.mu.Unlock()

	select {
	case <-s.drained:
	case <-time.After(drainTimeout):
	}
	_ = s.ptmx.Close()
	close(s.exited)
}

// Stop terminates the command.
func (s *PTYSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return nil
	}

	close(s.done)
	if s.cancel != nil {
		s.cancel()
	}
	if s.pCmd != nil && s.pCmd.Process != nil {
		_ = s.pCmd.Process.Kill()
	}
	if s.ptmx != nil {
		_ = s.ptmx.Close()
	}

	s.status = StatusStopped
	return nil
}

// Output returns the channel of raw terminal output. It is closed when the
// terminal closes.
func (s *PTYSession) Output() <-chan []byte {
	return s.output
}

// Wait blocks until the command exits and returns its exit error.
func (s *PTYSession) Wait() error {
	<-s.exited
	return s.ExitError()
}

// Status returns the current status.
func (s *PTYSession) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// History returns the buffered output history.
func (s *PTYSession) History() []byte {
	return s.buffer.Bytes()
}

// ExitError returns the process exit error if any.
func (s *PTYSession) ExitError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitErr
}
