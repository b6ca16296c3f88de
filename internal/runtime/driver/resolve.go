package driver

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func resolveExecutablePath(command string) (string, bool) {
	if command == "" {
		return "", false
	}
	if filepath.IsAbs(command) || strings.Contains(command, string(os.PathSeparator)) {
		if _, err := os.Stat(command); err == nil {
			return command, true
		}
		return "", false
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", false
	}
	return path, true
}
