// Package app provides application-level configuration and initialization.
package app

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration.
type Config struct {
	// ArduinoCLIPath is the full path to the arduino-cli executable.
	ArduinoCLIPath string `json:"arduino_cli_path,omitempty"`
	// AzPath is the full path to the Azure CLI.
	AzPath string `json:"az_path,omitempty"`
	// FuncPath is the full path to Azure Functions Core Tools.
	FuncPath string `json:"func_path,omitempty"`
	// EditorCommand opens a workspace descriptor, e.g. "code".
	EditorCommand string `json:"editor_command,omitempty"`
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	// LogFile additionally writes logs to this file when set.
	LogFile string `json:"log_file,omitempty"`
	// DesktopNotifications shows phase results as system notifications.
	DesktopNotifications bool `json:"desktop_notifications"`
	// TelemetryURL receives command telemetry events when set.
	TelemetryURL string `json:"telemetry_url,omitempty" validate:"omitempty,url"`
	// ToolEnv are extra environment variables for toolchain commands.
	ToolEnv map[string]string `json:"tool_env,omitempty"`
	// RecentPaths stores recently created project roots.
	RecentPaths []string `json:"recent_paths,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		EditorCommand:        "code",
		LogLevel:             "info",
		DesktopNotifications: true,
		RecentPaths:          []string{},
	}
}

// Validate checks enumerated and formatted fields.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// ConfigPath returns the path to the config file.
func ConfigPath(configDir string) string {
	return filepath.Join(configDir, "config.json")
}

// LoadConfig loads the configuration from disk.
func LoadConfig(configDir string) (*Config, error) {
	path := ConfigPath(configDir)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to disk.
func SaveConfig(configDir string, config *Config) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(configDir), data, 0644)
}

// ConfigDir returns the iotwb configuration directory.
func ConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if available, otherwise default to ~/.config
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, "iotwb"), nil
}

// DetectArduinoCLIPath attempts to find the arduino-cli executable.
func DetectArduinoCLIPath() string {
	home, _ := os.UserHomeDir()
	candidates := []string{}

	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/opt/homebrew/bin/arduino-cli",
			"/usr/local/bin/arduino-cli",
			filepath.Join(home, "bin", "arduino-cli"),
		)
	case "linux":
		candidates = append(candidates,
			"/usr/local/bin/arduino-cli",
			"/usr/bin/arduino-cli",
			filepath.Join(home, "bin", "arduino-cli"),
			filepath.Join(home, ".local/bin/arduino-cli"),
		)
	case "windows":
		candidates = append(candidates,
			filepath.Join(home, "AppData", "Local", "Programs", "arduino-cli", "arduino-cli.exe"),
		)
	}

	return detect("arduino-cli", candidates)
}

// DetectAzPath attempts to find the Azure CLI.
func DetectAzPath() string {
	candidates := []string{}
	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates, "/opt/homebrew/bin/az", "/usr/local/bin/az")
	case "linux":
		candidates = append(candidates, "/usr/bin/az", "/usr/local/bin/az")
	case "windows":
		candidates = append(candidates,
			`C:\Program Files\Microsoft SDKs\Azure\CLI2\wbin\az.cmd`,
			`C:\Program Files (x86)\Microsoft SDKs\Azure\CLI2\wbin\az.cmd`,
		)
	}
	return detect("az", candidates)
}

// DetectFuncPath attempts to find Azure Functions Core Tools.
func DetectFuncPath() string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, ".npm-global/bin/func"),
	}
	if runtime.GOOS == "windows" {
		candidates = append(candidates, filepath.Join(home, "AppData", "Roaming", "npm", "func.cmd"))
	} else {
		candidates = append(candidates, "/usr/local/bin/func", "/usr/bin/func")
	}
	return detect("func", candidates)
}

func detect(name string, candidates []string) string {
	// Try PATH first
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil {
			if runtime.GOOS == "windows" || info.Mode()&0111 != 0 {
				return path
			}
		}
	}
	return ""
}

// FillToolPaths detects every tool path that is not configured yet and
// reports whether anything changed.
func (c *Config) FillToolPaths() bool {
	changed := false
	if c.ArduinoCLIPath == "" {
		if p := DetectArduinoCLIPath(); p != "" {
			c.ArduinoCLIPath = p
			changed = true
		}
	}
	if c.AzPath == "" {
		if p := DetectAzPath(); p != "" {
			c.AzPath = p
			changed = true
		}
	}
	if c.FuncPath == "" {
		if p := DetectFuncPath(); p != "" {
			c.FuncPath = p
			changed = true
		}
	}
	return changed
}

// AddRecentPath adds a path to the recent paths list.
func (c *Config) AddRecentPath(path string) {
	path = filepath.Clean(path)

	paths := make([]string, 0, len(c.RecentPaths))
	for _, p := range c.RecentPaths {
		if p != path {
			paths = append(paths, p)
		}
	}

	c.RecentPaths = append([]string{path}, paths...)

	// Keep only last 20
	if len(c.RecentPaths) > 20 {
		c.RecentPaths = c.RecentPaths[:20]
	}
}
