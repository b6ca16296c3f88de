package model

import (
	"path/filepath"
	"strings"
)

// WorkspaceFolder is one folder entry of a workspace descriptor.
type WorkspaceFolder struct {
	Path string `json:"path"`
}

// Workspace is the descriptor written at project creation time. Each
// component that owns a subfolder gets a folder entry, and the scalar
// project settings live under Settings with namespaced keys.
type Workspace struct {
	Folders  []WorkspaceFolder `json:"folders"`
	Settings map[string]any    `json:"settings"`
}

// NewWorkspace returns an empty descriptor.
func NewWorkspace() *Workspace {
	return &Workspace{
		Folders:  []WorkspaceFolder{},
		Settings: make(map[string]any),
	}
}

// AddFolder appends a folder entry unless it is already present.
func (w *Workspace) AddFolder(path string) {
	for _, f := range w.Folders {
		if f.Path == path {
			return
		}
	}
	w.Folders = append(w.Folders, WorkspaceFolder{Path: path})
}

// Set stores a namespaced setting.
func (w *Workspace) Set(key ConfigKey, value any) {
	if w.Settings == nil {
		w.Settings = make(map[string]any)
	}
	w.Settings[key.Namespaced()] = value
}

// Get returns a namespaced setting as a string, or "" when unset.
func (w *Workspace) Get(key ConfigKey) string {
	v, ok := w.Settings[key.Namespaced()]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// FolderPaths resolves the folder entries against the directory holding the
// descriptor file.
func (w *Workspace) FolderPaths(descriptorPath string) []string {
	base := filepath.Dir(descriptorPath)
	paths := make([]string, 0, len(w.Folders))
	for _, f := range w.Folders {
		if filepath.IsAbs(f.Path) {
			paths = append(paths, filepath.Clean(f.Path))
			continue
		}
		paths = append(paths, filepath.Join(base, f.Path))
	}
	return paths
}

// WorkspaceFileName returns the descriptor file name for a project root,
// e.g. "/src/weather" yields "weather.code-workspace".
func WorkspaceFileName(rootPath string) string {
	return filepath.Base(filepath.Clean(rootPath)) + WorkspaceExtension
}

// IsWorkspaceFile reports whether name carries the descriptor extension.
func IsWorkspaceFile(name string) bool {
	return strings.HasSuffix(name, WorkspaceExtension)
}
