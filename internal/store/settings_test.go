package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazyvibe/iotwb/internal/model"
)

const commentedWorkspace = `{
	// folders opened in the editor
	"folders": [
		{ "path": "Device" },
		{ "path": "Functions" },
	],
	"settings": {
		"IoTWorkbench.devicePath": "Device",
		"IoTWorkbench.boardId": "devkit", /* set by create */
	},
}`

func TestWorkspaceSettings_ReadsJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.code-workspace")
	require.NoError(t, os.WriteFile(path, []byte(commentedWorkspace), 0644))

	s, err := NewWorkspaceSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "Device", s.Get(model.ConfigDevicePath))
	assert.Equal(t, "devkit", s.Get(model.ConfigBoardID))
	assert.Equal(t, "", s.Get(model.ConfigFunctionPath))

	folders := s.Workspace().FolderPaths(path)
	require.Len(t, folders, 2)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "Device"), folders[0])
}

func TestWorkspaceSettings_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.code-workspace")
	require.NoError(t, os.WriteFile(path, []byte(commentedWorkspace), 0644))

	s, err := NewWorkspaceSettings(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(model.ConfigFunctionPath, "Functions"))
	require.NoError(t, s.Update(model.ConfigShownHelpPage, true))

	reopened, err := NewWorkspaceSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "Functions", reopened.Get(model.ConfigFunctionPath))
	assert.True(t, reopened.GetBool(model.ConfigShownHelpPage))
	assert.Equal(t, "devkit", reopened.Get(model.ConfigBoardID))
}

func TestLayered_FallsBackToGlobal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weather.code-workspace")
	require.NoError(t, os.WriteFile(path, []byte(commentedWorkspace), 0644))

	ws, err := NewWorkspaceSettings(path)
	require.NoError(t, err)
	global, err := NewGlobalSettings(filepath.Join(dir, "config"))
	require.NoError(t, err)
	require.NoError(t, global.Update(model.ConfigShownHelpPage, true))
	require.NoError(t, global.Update(model.ConfigBoardID, "esp32"))

	l := &Layered{Workspace: ws, Global: global}
	assert.Equal(t, "devkit", l.Get(model.ConfigBoardID))
	assert.True(t, l.GetBool(model.ConfigShownHelpPage))

	require.NoError(t, l.Update(model.ConfigAsaPath, "StreamAnalytics"))
	assert.Equal(t, "StreamAnalytics", ws.Get(model.ConfigAsaPath))
	assert.Equal(t, "", global.Get(model.ConfigAsaPath))

	noWorkspace := &Layered{Global: global}
	assert.Equal(t, "esp32", noWorkspace.Get(model.ConfigBoardID))
	assert.Error(t, (&Layered{}).Update(model.ConfigBoardID, "x"))
}
