package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/component"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/store"
)

// overrideFactory replaces single variants of the real factory.
type overrideFactory struct {
	Factory
	hub       func(id string) component.Component
	functions func(id, folder string, deps []component.Dependency) component.Component
}

func (f overrideFactory) IoTHub(id string) component.Component {
	if f.hub != nil {
		return f.hub(id)
	}
	return f.Factory.IoTHub(id)
}

func (f overrideFactory) AzureFunctions(id, folder string, deps []component.Dependency) component.Component {
	if f.functions != nil {
		return f.functions(id, folder, deps)
	}
	return f.Factory.AzureFunctions(id, folder, deps)
}

func templateFor(t *testing.T, kind model.TemplateType, boardID string) *model.ProjectTemplate {
	t.Helper()
	tmpl, ok := board.Default().FindTemplate(kind, boardID)
	require.True(t, ok, kind)
	return tmpl
}

func (h *harness) mkroot(t *testing.T) {
	t.Helper()
	require.NoError(t, os.MkdirAll(h.root, 0755))
}

func TestCreate_AzureFunctions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mkroot(t)

	p := New(h.options())
	ok, err := p.Create(ctx, h.root, templateFor(t, model.TemplateAzureFunctions, model.BoardRaspberryPi), model.BoardRaspberryPi, false)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []model.ComponentType{
		model.ComponentDevice,
		model.ComponentIoTHub,
		model.ComponentAzureFunctions,
	}, types(p))
	list := p.Components()
	deps := list[2].(dependent).Dependencies()
	require.Len(t, deps, 1)
	assert.Same(t, list[1], deps[0].Component)
	assert.Equal(t, model.DependencyInput, deps[0].Type)

	assert.FileExists(t, filepath.Join(h.root, model.DeviceFolderName, model.ProjectMarkerFileName))
	assert.FileExists(t, filepath.Join(h.root, model.FunctionFolderName, "host.json"))

	workspaceFile := filepath.Join(h.root, "weather.code-workspace")
	ws, err := store.ReadWorkspace(workspaceFile)
	require.NoError(t, err)
	assert.Equal(t, []model.WorkspaceFolder{{Path: "Device"}, {Path: "Functions"}}, ws.Folders)
	assert.Equal(t, model.BoardRaspberryPi, ws.Get(model.ConfigBoardID))
	assert.Equal(t, "Functions", ws.Get(model.ConfigFunctionPath))

	records, err := store.NewAzureConfigFile(h.root).Components(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, list[1].ID(), records[0].ID)
	assert.Equal(t, []model.DependencyConfig{{ID: list[1].ID(), Type: model.DependencyInput}}, records[1].Dependencies)

	assert.Equal(t, 1, h.opener.calls)
	assert.Equal(t, workspaceFile, h.opener.file)
	assert.False(t, h.opener.newWindow)
	assert.Equal(t, []string{NewProjectEvent}, h.notifier.Events)

	// Loading the created project replays the records.
	settings, err := store.NewWorkspaceSettings(workspaceFile)
	require.NoError(t, err)
	opts := h.options(ws.FolderPaths(workspaceFile)...)
	opts.Settings = settings
	loaded := New(opts)
	ok, err = loaded.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.ComponentType{
		model.ComponentDevice,
		model.ComponentIoTHub,
		model.ComponentIoTHubDevice,
		model.ComponentAzureFunctions,
	}, types(loaded))
	assert.Equal(t, list[2].ID(), loaded.Components()[3].ID())
}

func TestCreate_StreamAnalytics(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mkroot(t)

	p := New(h.options())
	ok, err := p.Create(ctx, h.root, templateFor(t, model.TemplateStreamAnalytics, model.BoardRaspberryPi), model.BoardRaspberryPi, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.ComponentType{
		model.ComponentDevice,
		model.ComponentIoTHub,
		model.ComponentCosmosDB,
		model.ComponentStreamAnalyticsJob,
	}, types(p))

	query, err := os.ReadFile(filepath.Join(h.root, model.AsaFolderName, model.AsaQueryFileName))
	require.NoError(t, err)
	hubRef := component.ResourceRef(p.Components()[1])
	assert.Contains(t, string(query), `"`+hubRef+`"`)

	assert.Empty(t, h.notifier.Events, "no event when opening in a new window")
	assert.True(t, h.opener.newWindow)
}

func TestCreate_Basic(t *testing.T) {
	h := newHarness(t)
	h.mkroot(t)

	p := New(h.options())
	ok, err := p.Create(context.Background(), h.root, templateFor(t, model.TemplateBasic, model.BoardRaspberryPi), model.BoardRaspberryPi, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.ComponentType{model.ComponentDevice}, types(p))
	assert.NoFileExists(t, filepath.Join(h.root, model.FunctionFolderName))
}

func TestCreate_RemovesRootOnPrerequisiteFailure(t *testing.T) {
	h := newHarness(t)
	h.mkroot(t)

	opts := h.options()
	opts.NewFactory = func(env component.Env) Factory {
		return overrideFactory{
			Factory: NewFactory(board.Default())(env),
			functions: func(string, string, []component.Dependency) component.Component {
				return cloudStub{h.stub("Azure Functions", false, true)}
			},
		}
	}

	ok, err := New(opts).Create(context.Background(), h.root, templateFor(t, model.TemplateAzureFunctions, model.BoardIoTButton), model.BoardIoTButton, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoDirExists(t, h.root)
	assert.Zero(t, h.opener.calls)
	assert.Equal(t, []string{"check:Azure Functions"}, h.calls)
}

func TestCreate_RemovesRootWhenCreateCancelled(t *testing.T) {
	h := newHarness(t)
	h.mkroot(t)

	opts := h.options()
	opts.NewFactory = func(env component.Env) Factory {
		return overrideFactory{
			Factory: NewFactory(board.Default())(env),
			hub: func(string) component.Component {
				return cloudStub{h.stub("IoT Hub", true, false)}
			},
		}
	}

	ok, err := New(opts).Create(context.Background(), h.root, templateFor(t, model.TemplateIotHub, model.BoardIoTButton), model.BoardIoTButton, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoDirExists(t, h.root)
	assert.Equal(t, []string{"Project initialize canceled."}, h.notifier.Warns)
}

func TestCreate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported board removes root", func(t *testing.T) {
		h := newHarness(t)
		h.mkroot(t)
		tmpl := templateFor(t, model.TemplateIotHub, model.BoardIoTButton)
		_, err := New(h.options()).Create(ctx, h.root, tmpl, "abacus", false)
		assert.ErrorIs(t, err, ErrUnsupportedBoard)
		assert.NoDirExists(t, h.root)
	})

	t.Run("unsupported template", func(t *testing.T) {
		h := newHarness(t)
		h.mkroot(t)
		tmpl := &model.ProjectTemplate{Name: "Mystery", Type: "Mystery", Sketch: "basic"}
		_, err := New(h.options()).Create(ctx, h.root, tmpl, model.BoardRaspberryPi, false)
		assert.ErrorIs(t, err, ErrUnsupportedTemplate)
		assert.NoDirExists(t, h.root)

		_, err = New(h.options()).Create(ctx, h.root, nil, model.BoardRaspberryPi, false)
		assert.ErrorIs(t, err, ErrUnsupportedTemplate)
	})

	t.Run("missing root", func(t *testing.T) {
		h := newHarness(t)
		_, err := New(h.options()).Create(ctx, h.root, templateFor(t, model.TemplateBasic, model.BoardRaspberryPi), model.BoardRaspberryPi, false)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestCheckRoot(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckRoot(filepath.Join(dir, "missing")))
	assert.NoError(t, CheckRoot(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	assert.ErrorIs(t, CheckRoot(dir), ErrRootNotEmpty)
}
