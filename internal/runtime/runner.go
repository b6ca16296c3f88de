package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

// Result describes a finished streamed command.
type Result struct {
	// ExitCode is the process exit status, -1 when it is unknown.
	ExitCode int
	// Output is the raw terminal history.
	Output []byte
	// Screen is the final emulated screen.
	Screen []string
}

// Success reports whether the command exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner executes toolchain commands.
type Runner interface {
	// Stream runs cmd on a pseudo terminal and logs its output line by line.
	// A non-zero exit is reported in the Result, not as an error.
	Stream(ctx context.Context, cmd *exec.Cmd) (*Result, error)
	// Capture runs cmd and returns its standard output. Standard error is
	// logged. A non-zero exit is an error.
	Capture(ctx context.Context, cmd *exec.Cmd) ([]byte, error)
}

// PTYRunner is the Runner used by the CLI.
type PTYRunner struct {
	mu       sync.Mutex
	sessions map[string]*PTYSession
	logger   arbor.ILogger
}

// NewPTYRunner creates a runner that logs tool output to logger.
func NewPTYRunner(logger arbor.ILogger) *PTYRunner {
	return &PTYRunner{
		sessions: make(map[string]*PTYSession),
		logger:   logger,
	}
}

// Stream runs cmd attached to a pseudo terminal.
func (r *PTYRunner) Stream(ctx context.Context, cmd *exec.Cmd) (*Result, error) {
	id := uuid.NewString()
	session := NewPTYSession(id, cmd)

	r.logger.Debug().Str("session", id).Str("command", formatCmd(cmd)).Msg("Starting tool")
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	r.track(session)
	defer r.untrack(id)

	lw := newLineWriter(func(line string) {
		r.logger.Info().Msg(line)
	})
	for data := range session.Output() {
		_, _ = lw.Write(data)
	}
	lw.Flush()

	waitErr := session.Wait()
	history := session.History()
	result := &Result{
		Output: history,
		Screen: RenderScreen(history, ScreenRows, ScreenCols),
	}

	if err := ctx.Err(); err != nil {
		result.ExitCode = -1
		return result, err
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Debug().Str("session", id).Int("exit_code", result.ExitCode).Msg("Tool exited")
			return result, nil
		}
		result.ExitCode = -1
		return result, fmt.Errorf("%s: %w", formatCmd(cmd), waitErr)
	}
	return result, nil
}

// Capture runs cmd without a terminal.
func (r *PTYRunner) Capture(ctx context.Context, cmd *exec.Cmd) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Path, args(cmd)...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir

	var stdout bytes.Buffer
	stderr := newLineWriter(func(line string) {
		r.logger.Debug().Str("command", formatCmd(cmd)).Msg(line)
	})
	c.Stdout = &stdout
	c.Stderr = stderr

	r.logger.Debug().Str("command", formatCmd(cmd)).Msg("Running tool")
	err := c.Run()
	stderr.Flush()
	if err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w", formatCmd(cmd), err)
	}
	return stdout.Bytes(), nil
}

// Running returns the number of live sessions.
func (r *PTYRunner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll stops every live session.
func (r *PTYRunner) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for id, session := range r.sessions {
		if err := session.Stop(); err != nil {
			lastErr = err
		}
		delete(r.sessions, id)
	}
	return lastErr
}

func (r *PTYRunner) track(s *PTYSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *PTYRunner) untrack(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func args(cmd *exec.Cmd) []string {
	if len(cmd.Args) > 1 {
		return cmd.Args[1:]
	}
	return nil
}
