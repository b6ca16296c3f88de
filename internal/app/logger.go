package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// NewLogger builds the output channel for a command run: a console writer
// plus an optional file writer, at the configured level.
func NewLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	})

	if config.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.LogFile), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create log directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         config.LogFile,
				TimeFormat:       "15:04:05",
				MaxSize:          10 * 1024 * 1024,
				MaxBackups:       3,
				OutputType:       models.OutputFormatLogfmt,
				DisableTimestamp: false,
			})
		}
	}

	level := config.LogLevel
	if level == "" {
		level = "info"
	}
	return logger.WithLevelFromString(level)
}
