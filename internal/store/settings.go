package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/lazyvibe/iotwb/internal/model"
)

// WorkspaceSettings reads and writes the "settings" object of a workspace
// descriptor. The descriptor may contain comments and trailing commas; they
// are dropped the first time the file is rewritten.
type WorkspaceSettings struct {
	mu        sync.RWMutex
	path      string
	workspace *model.Workspace
}

// ReadWorkspace parses a workspace descriptor file.
func ReadWorkspace(path string) (*model.Workspace, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	ws := model.NewWorkspace()
	if err := json.Unmarshal(jsonc.ToJSON(content), ws); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if ws.Settings == nil {
		ws.Settings = make(map[string]any)
	}
	return ws, nil
}

// WriteWorkspace writes a workspace descriptor with four-space indentation.
func WriteWorkspace(path string, ws *model.Workspace) error {
	content, err := json.MarshalIndent(ws, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

// NewWorkspaceSettings opens the settings of the descriptor at path.
func NewWorkspaceSettings(path string) (*WorkspaceSettings, error) {
	ws, err := ReadWorkspace(path)
	if err != nil {
		return nil, err
	}
	return &WorkspaceSettings{path: path, workspace: ws}, nil
}

// Path returns the descriptor path.
func (s *WorkspaceSettings) Path() string {
	return s.path
}

// Workspace returns the parsed descriptor.
func (s *WorkspaceSettings) Workspace() *model.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspace
}

// Get returns the setting as a string.
func (s *WorkspaceSettings) Get(key model.ConfigKey) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stringValue(s.workspace.Settings[key.Namespaced()])
}

// GetBool returns the setting as a bool.
func (s *WorkspaceSettings) GetBool(key model.ConfigKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return boolValue(s.workspace.Settings[key.Namespaced()])
}

// Update stores the setting and rewrites the descriptor.
func (s *WorkspaceSettings) Update(key model.ConfigKey, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace.Set(key, value)
	return WriteWorkspace(s.path, s.workspace)
}

// GlobalSettings keeps user-level settings in a JSON object file.
type GlobalSettings struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewGlobalSettings opens (or lazily creates) settings.json in configDir.
func NewGlobalSettings(configDir string) (*GlobalSettings, error) {
	s := &GlobalSettings{
		path:   filepath.Join(configDir, "settings.json"),
		values: make(map[string]any),
	}
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonc.ToJSON(content), &s.values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return s, nil
}

// Get returns the setting as a string.
func (s *GlobalSettings) Get(key model.ConfigKey) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stringValue(s.values[key.Namespaced()])
}

// GetBool returns the setting as a bool.
func (s *GlobalSettings) GetBool(key model.ConfigKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return boolValue(s.values[key.Namespaced()])
}

// Update stores the setting and rewrites the file.
func (s *GlobalSettings) Update(key model.ConfigKey, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key.Namespaced()] = value
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	content, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, content, 0644)
}

// Layered resolves settings from the workspace first and then the global
// scope. Writes go to the workspace when one is open.
type Layered struct {
	Workspace Settings
	Global    Settings
}

// Get returns the first non-empty value.
func (l *Layered) Get(key model.ConfigKey) string {
	if l.Workspace != nil {
		if v := l.Workspace.Get(key); v != "" {
			return v
		}
	}
	if l.Global != nil {
		return l.Global.Get(key)
	}
	return ""
}

// GetBool returns true when either scope holds true.
func (l *Layered) GetBool(key model.ConfigKey) bool {
	if l.Workspace != nil && l.Workspace.GetBool(key) {
		return true
	}
	return l.Global != nil && l.Global.GetBool(key)
}

// Update writes to the workspace scope, or the global scope without one.
func (l *Layered) Update(key model.ConfigKey, value any) error {
	if l.Workspace != nil {
		return l.Workspace.Update(key, value)
	}
	if l.Global != nil {
		return l.Global.Update(key, value)
	}
	return errors.New("no settings scope available")
}

// UpdateGlobal writes to the global scope regardless of the workspace.
func (l *Layered) UpdateGlobal(key model.ConfigKey, value any) error {
	if l.Global == nil {
		return errors.New("no global settings scope available")
	}
	return l.Global.Update(key, value)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func boolValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}
