package driver

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/lazyvibe/iotwb/pkg/utils"
)

// NativeDriver launches a tool executable directly.
type NativeDriver struct {
	tool        Tool
	commandLine string // Configured path or command line, may be empty
	fallback    string // Command looked up on PATH when nothing is configured
	env         map[string]string
}

// NewNativeDriver creates a driver for tool. commandLine is the configured
// executable (optionally with leading arguments); fallback is used when it
// is empty.
func NewNativeDriver(tool Tool, commandLine, fallback string, env map[string]string) *NativeDriver {
	return &NativeDriver{
		tool:        tool,
		commandLine: commandLine,
		fallback:    fallback,
		env:         env,
	}
}

// Name returns the tool identifier.
func (d *NativeDriver) Name() Tool {
	return d.tool
}

// BuildCommand constructs the command for native execution.
func (d *NativeDriver) BuildCommand(workDir string, args ...string) (*exec.Cmd, error) {
	parts, err := d.parts()
	if err != nil {
		return nil, err
	}
	command, ok := resolveExecutablePath(parts[0])
	if !ok {
		return nil, errors.New("command not found: " + parts[0])
	}

	cmd := exec.Command(command, append(parts[1:], args...)...)
	cmd.Dir = workDir

	// Start with current environment, then overlay configured vars
	env := os.Environ()
	hasTerm := false
	for k, v := range d.env {
		env = append(env, k+"="+v)
		if k == "TERM" {
			hasTerm = true
		}
	}
	if !hasTerm {
		env = append(env, "TERM=xterm-256color")
	}
	cmd.Env = env

	return cmd, nil
}

// Validate checks the tool can be resolved.
func (d *NativeDriver) Validate() error {
	parts, err := d.parts()
	if err != nil {
		return err
	}
	if _, resolved := resolveExecutablePath(parts[0]); !resolved {
		return errors.New("command not found: " + parts[0])
	}
	return nil
}

func (d *NativeDriver) parts() ([]string, error) {
	commandLine := strings.TrimSpace(d.commandLine)
	if commandLine == "" {
		commandLine = d.fallback
	}

	parts, err := utils.SplitCommandLine(commandLine)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, errors.New("command is empty")
	}
	return parts, nil
}
