// Package utils holds small helpers shared by the iotwb commands.
package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxSuggestions = 10

// PathCompleter suggests folders for the project root prompt.
type PathCompleter struct {
	recentPaths []string
}

// NewPathCompleter creates a completer that offers recentPaths for empty
// input.
func NewPathCompleter(recentPaths []string) *PathCompleter {
	return &PathCompleter{recentPaths: recentPaths}
}

// Complete returns folder suggestions for input. Only folders are offered,
// since a project root is always a folder.
func (c *PathCompleter) Complete(input string) []string {
	if input == "" {
		return c.defaults()
	}

	expanded := expandHome(input)
	dir, prefix := filepath.Dir(expanded), filepath.Base(expanded)
	if strings.HasSuffix(input, "/") || strings.HasSuffix(input, string(filepath.Separator)) {
		dir, prefix = expanded, ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return c.matchRecent(input)
	}

	var suggestions []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		suggestions = append(suggestions, displayPath(input, filepath.Join(dir, name))+"/")
	}

	sort.Strings(suggestions)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func (c *PathCompleter) defaults() []string {
	var suggestions []string
	for i, p := range c.recentPaths {
		if i >= 5 {
			break
		}
		suggestions = append(suggestions, strings.TrimSuffix(displayPath("~", p), "/")+"/")
	}
	suggestions = append(suggestions, "~/", "~/Projects/", "~/Documents/")
	return dedupe(suggestions)
}

func (c *PathCompleter) matchRecent(input string) []string {
	expanded := expandHome(input)
	var matches []string
	for _, p := range c.recentPaths {
		if strings.HasPrefix(p, expanded) {
			matches = append(matches, displayPath(input, p))
		}
	}
	return matches
}

// displayPath abbreviates the home folder as ~ when the user typed it.
func displayPath(input, path string) string {
	if !strings.HasPrefix(input, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || !strings.HasPrefix(path, home) {
		return path
	}
	return "~" + strings.TrimPrefix(path, home)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// ExpandPath expands a leading ~ and cleans the path.
func ExpandPath(path string) string {
	return filepath.Clean(expandHome(path))
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}
