package operator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/runtime/driver"
)

// EditorOpener opens workspace descriptors with the configured editor.
type EditorOpener struct {
	drivers *driver.Registry
	logger  arbor.ILogger
}

// NewEditorOpener creates an opener launching driver.ToolEditor.
func NewEditorOpener(drivers *driver.Registry, logger arbor.ILogger) *EditorOpener {
	return &EditorOpener{drivers: drivers, logger: logger}
}

// Open starts the editor on workspaceFile without waiting for it to exit.
func (o *EditorOpener) Open(_ context.Context, workspaceFile string, newWindow bool) error {
	flag := "--reuse-window"
	if newWindow {
		flag = "--new-window"
	}
	cmd, err := o.drivers.Command(driver.ToolEditor, filepath.Dir(workspaceFile), flag, workspaceFile)
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting editor: %w", err)
	}
	o.logger.Info().Str("workspace", workspaceFile).Bool("new_window", newWindow).Msg("Opened project in editor")
	return cmd.Process.Release()
}
