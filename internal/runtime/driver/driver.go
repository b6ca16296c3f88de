// Package driver builds commands for the external tools iotwb drives.
package driver

import (
	"fmt"
	"os/exec"
)

// Tool names an external executable.
type Tool string

const (
	// ToolArduinoCLI compiles and uploads Arduino sketches.
	ToolArduinoCLI Tool = "arduino-cli"
	// ToolAz is the Azure CLI.
	ToolAz Tool = "az"
	// ToolFunc is Azure Functions Core Tools.
	ToolFunc Tool = "func"
	// ToolEditor opens workspace descriptors.
	ToolEditor Tool = "editor"
)

// Driver defines the interface for building tool commands.
type Driver interface {
	// Name returns the tool this driver launches.
	Name() Tool
	// BuildCommand constructs the exec.Cmd running the tool with args in workDir.
	BuildCommand(workDir string, args ...string) (*exec.Cmd, error)
	// Validate checks that the tool can be found.
	Validate() error
}

// Config holds driver configuration.
type Config struct {
	ArduinoCLIPath string
	AzPath         string
	FuncPath       string
	// EditorCommand may carry arguments, e.g. "code --reuse-window".
	EditorCommand string
	// Env is added to the environment of every tool.
	Env map[string]string
}

// Registry holds all available drivers.
type Registry struct {
	drivers map[Tool]Driver
}

// NewRegistry creates a driver registry with the built-in tools.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		drivers: make(map[Tool]Driver),
	}

	r.Register(NewNativeDriver(ToolArduinoCLI, cfg.ArduinoCLIPath, "arduino-cli", cfg.Env))
	r.Register(NewNativeDriver(ToolAz, cfg.AzPath, "az", cfg.Env))
	r.Register(NewNativeDriver(ToolFunc, cfg.FuncPath, "func", cfg.Env))
	r.Register(NewNativeDriver(ToolEditor, cfg.EditorCommand, "code", cfg.Env))

	return r
}

// Register adds or replaces a driver.
func (r *Registry) Register(d Driver) {
	r.drivers[d.Name()] = d
}

// Get retrieves a driver by tool.
func (r *Registry) Get(t Tool) (Driver, bool) {
	d, ok := r.drivers[t]
	return d, ok
}

// Command builds a command for tool t.
func (r *Registry) Command(t Tool, workDir string, args ...string) (*exec.Cmd, error) {
	d, ok := r.Get(t)
	if !ok {
		return nil, fmt.Errorf("driver not found: %s", t)
	}
	return d.BuildCommand(workDir, args...)
}

// Available reports whether tool t can be launched.
func (r *Registry) Available(t Tool) bool {
	d, ok := r.Get(t)
	return ok && d.Validate() == nil
}
