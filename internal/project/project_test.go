package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/component"
	"github.com/lazyvibe/iotwb/internal/fake"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/internal/store"
)

// stub is a scripted component. Calls are recorded as "verb:name".
type stub struct {
	name   string
	ready  bool
	result bool
	calls  *[]string
	target cloud.Target
}

func (s *stub) ID() string                { return s.name }
func (s *stub) Name() string              { return s.name }
func (s *stub) Type() model.ComponentType { return model.ComponentIoTHub }

func (s *stub) CheckPrerequisites(context.Context) (bool, error) {
	*s.calls = append(*s.calls, "check:"+s.name)
	return s.ready, nil
}

func (s *stub) act(verb string) (bool, error) {
	*s.calls = append(*s.calls, verb+":"+s.name)
	return s.result, nil
}

type deviceStub struct{ *stub }

func (s deviceStub) Compile(context.Context) (bool, error) { return s.act("compile") }
func (s deviceStub) Upload(context.Context) (bool, error)  { return s.act("upload") }

type cloudStub struct{ *stub }

func (s cloudStub) Create(context.Context) (bool, error) { return s.act("create") }
func (s cloudStub) Deploy(context.Context) (bool, error) { return s.act("deploy") }

func (s cloudStub) Provision(_ context.Context, target cloud.Target) (bool, error) {
	s.target = target
	return s.act("provision")
}

type recordingOpener struct {
	file      string
	newWindow bool
	calls     int
}

func (o *recordingOpener) Open(_ context.Context, file string, newWindow bool) error {
	o.file, o.newWindow = file, newWindow
	o.calls++
	return nil
}

type harness struct {
	root     string
	calls    []string
	settings *fake.Settings
	toolkit  *fake.Toolkit
	notifier *fake.Notifier
	prompter *prompt.Scripted
	opener   *recordingOpener
}

func newHarness(t *testing.T, answers ...prompt.Answer) *harness {
	t.Helper()
	return &harness{
		root:     filepath.Join(t.TempDir(), "weather"),
		settings: fake.NewSettings(nil),
		toolkit:  fake.NewToolkit(),
		notifier: &fake.Notifier{},
		prompter: prompt.NewScripted(answers...),
		opener:   &recordingOpener{},
	}
}

func (h *harness) options(folders ...string) Options {
	return Options{
		Folders:  folders,
		Settings: h.settings,
		Prompter: h.prompter,
		Toolkit:  h.toolkit,
		Runner:   &fake.Runner{},
		Notifier: h.notifier,
		Opener:   h.opener,
		Logger:   arbor.NewLogger(),
	}
}

func (h *harness) stub(name string, ready, result bool) *stub {
	return &stub{name: name, ready: ready, result: result, calls: &h.calls}
}

// loaded returns a project holding components as if loaded from disk.
func (h *harness) loaded(components ...component.Component) *Project {
	p := New(h.options(filepath.Join(h.root, model.DeviceFolderName)))
	p.setRoot(h.root)
	for _, c := range components {
		p.add(c)
	}
	p.loaded = true
	return p
}

// projectSettings configures the workspace settings of a created project.
func (h *harness) projectSettings(boardID string, functions bool) {
	h.settings.Values[model.ConfigDevicePath] = model.DeviceFolderName
	h.settings.Values[model.ConfigBoardID] = boardID
	if functions {
		h.settings.Values[model.ConfigFunctionPath] = model.FunctionFolderName
	}
}

func (h *harness) appendRecords(t *testing.T, records ...model.ComponentConfig) {
	t.Helper()
	configs := store.NewAzureConfigFile(h.root)
	require.NoError(t, configs.CreateIfNotExists(context.Background()))
	for i := range records {
		require.NoError(t, configs.Append(context.Background(), &records[i]))
	}
}

func types(p *Project) []model.ComponentType {
	var out []model.ComponentType
	for _, c := range p.Components() {
		out = append(out, c.Type())
	}
	return out
}

type dependent interface {
	Dependencies() []component.Dependency
}

func TestLoad_NotAProject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	ok, err := New(h.options()).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no workspace folder")

	ok, err = New(h.options(filepath.Join(h.root, "Device"))).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no device path")
}

func TestLoad_ReplaysRecords(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.projectSettings(model.BoardRaspberryPi, true)
	h.appendRecords(t,
		model.ComponentConfig{ID: "hub1", Type: model.ComponentIoTHub},
		model.ComponentConfig{ID: "db1", Type: model.ComponentCosmosDB},
		model.ComponentConfig{ID: "asa1", Type: model.ComponentStreamAnalyticsJob, Dependencies: []model.DependencyConfig{
			{ID: "hub1", Type: model.DependencyInput},
			{ID: "db1", Type: model.DependencyOther},
		}},
		model.ComponentConfig{ID: "fn1", Type: model.ComponentAzureFunctions, Dependencies: []model.DependencyConfig{
			{ID: "hub1", Type: model.DependencyInput},
		}},
	)

	p := New(h.options(filepath.Join(h.root, model.DeviceFolderName)))
	ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h.root, p.Root())
	assert.Equal(t, []model.ComponentType{
		model.ComponentDevice,
		model.ComponentIoTHub,
		model.ComponentIoTHubDevice,
		model.ComponentCosmosDB,
		model.ComponentStreamAnalyticsJob,
		model.ComponentAzureFunctions,
	}, types(p))

	list := p.Components()
	hub, db := list[1], list[3]
	asaDeps := list[4].(dependent).Dependencies()
	require.Len(t, asaDeps, 2)
	assert.Same(t, hub, asaDeps[0].Component)
	assert.Same(t, db, asaDeps[1].Component)
	assert.Equal(t, model.DependencyOther, asaDeps[1].Type)

	fnDeps := list[5].(dependent).Dependencies()
	require.Len(t, fnDeps, 1)
	assert.Same(t, hub, fnDeps[0].Component)

	deviceDeps := list[2].(dependent).Dependencies()
	require.Len(t, deviceDeps, 1)
	assert.Same(t, hub, deviceDeps[0].Component)
}

func TestLoad_ForwardReference(t *testing.T) {
	h := newHarness(t)
	h.projectSettings(model.BoardRaspberryPi, false)
	h.appendRecords(t,
		model.ComponentConfig{ID: "asa1", Type: model.ComponentStreamAnalyticsJob, Dependencies: []model.DependencyConfig{
			{ID: "hub1", Type: model.DependencyInput},
		}},
		model.ComponentConfig{ID: "hub1", Type: model.ComponentIoTHub},
	)

	_, err := New(h.options(filepath.Join(h.root, model.DeviceFolderName))).Load(context.Background())
	assert.ErrorIs(t, err, ErrComponentNotFound)
	assert.Contains(t, err.Error(), "hub1")
}

func TestLoad_FunctionsWithoutFunctionPath(t *testing.T) {
	h := newHarness(t)
	h.projectSettings(model.BoardRaspberryPi, false)
	h.appendRecords(t, model.ComponentConfig{ID: "fn1", Type: model.ComponentAzureFunctions})

	ok, err := New(h.options(filepath.Join(h.root, model.DeviceFolderName))).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_BackwardCompatibleDefault(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.projectSettings(model.BoardIoTButton, true)
	folder := filepath.Join(h.root, model.DeviceFolderName)

	p := New(h.options(folder))
	ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.ComponentType{
		model.ComponentDevice,
		model.ComponentIoTHub,
		model.ComponentIoTHubDevice,
		model.ComponentAzureFunctions,
	}, types(p))

	records, err := store.NewAzureConfigFile(h.root).Components(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, p.Components()[1].ID(), records[0].ID)
	assert.Equal(t, []model.DependencyConfig{{ID: records[0].ID, Type: model.DependencyInput}}, records[1].Dependencies)
	assert.Equal(t, model.FunctionFolderName, records[1].Folder)

	again := New(h.options(folder))
	ok, err = again.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types(p), types(again))
	assert.Equal(t, p.Components()[3].ID(), again.Components()[3].ID())
}

func TestLoad_UnsupportedComponent(t *testing.T) {
	h := newHarness(t)
	h.projectSettings(model.BoardRaspberryPi, false)
	h.appendRecords(t,
		model.ComponentConfig{ID: "hub1", Type: model.ComponentIoTHub},
		model.ComponentConfig{ID: "m1", Type: "Mystery"},
	)

	ok, err := New(h.options(filepath.Join(h.root, model.DeviceFolderName))).Load(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnsupportedComponent)
	assert.Contains(t, err.Error(), "Mystery")
}

func TestLoad_MissingBoardID(t *testing.T) {
	h := newHarness(t)
	h.projectSettings("", true)

	p := New(h.options(filepath.Join(h.root, model.DeviceFolderName)))
	ok, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, p.Components())
	assert.NoDirExists(t, filepath.Join(h.root, model.AzureConfigFolderName))

	_, err = p.Compile(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoad_UnknownBoard(t *testing.T) {
	h := newHarness(t)
	h.projectSettings("abacus", false)

	p := New(h.options(filepath.Join(h.root, model.DeviceFolderName)))
	ok, err := p.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.ComponentType{model.ComponentIoTHub, model.ComponentIoTHubDevice}, types(p))
}

func TestPhases_RequireLoad(t *testing.T) {
	ctx := context.Background()
	p := New(newHarness(t).options())

	_, err := p.Compile(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = p.Upload(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = p.Provision(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = p.Deploy(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = p.ConfigDeviceSettings(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestCompile_StopsAtFailedPrerequisite(t *testing.T) {
	h := newHarness(t)
	p := h.loaded(
		deviceStub{h.stub("a", true, true)},
		deviceStub{h.stub("b", false, true)},
		deviceStub{h.stub("c", true, true)},
	)

	ok, err := p.Compile(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"check:a", "compile:a", "check:b"}, h.calls)
}

func TestUpload_StopsAtFailedPrerequisite(t *testing.T) {
	h := newHarness(t)
	p := h.loaded(
		deviceStub{h.stub("a", true, true)},
		deviceStub{h.stub("b", false, true)},
		deviceStub{h.stub("c", true, true)},
	)

	ok, err := p.Upload(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, h.calls, "upload:c")
	assert.NotContains(t, h.calls, "check:c")
}

func TestCompile_FalseResultIsFault(t *testing.T) {
	h := newHarness(t)
	p := h.loaded(
		cloudStub{h.stub("hub", true, true)},
		deviceStub{h.stub("board", true, false)},
	)

	ok, err := p.Compile(context.Background())
	assert.False(t, ok)
	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, "board", phaseErr.Component)
	assert.Equal(t, "Unable to compile the device code, please check output window for detail.", err.Error())
	assert.Equal(t, []string{"check:board", "compile:board"}, h.calls)

	h.calls = nil
	_, err = p.Upload(context.Background())
	assert.EqualError(t, err, "Unable to upload the sketch, please check output window for detail.")
}

func TestCompile_AllSucceed(t *testing.T) {
	h := newHarness(t)
	p := h.loaded(deviceStub{h.stub("a", true, true)}, deviceStub{h.stub("b", true, true)})

	ok, err := p.Compile(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"check:a", "compile:a", "check:b", "compile:b"}, h.calls)
}

func TestProvision_NothingToProvision(t *testing.T) {
	h := newHarness(t)
	h.toolkit.SignedIn = false
	p := h.loaded(deviceStub{h.stub("board", true, true)})

	ok, err := p.Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, h.toolkit.Calls)
	assert.Equal(t, []string{"Congratulations! There is no Azure service to provision in this project."}, h.notifier.Infos)
}

func TestProvision_PrerequisiteFailsBeforeCloud(t *testing.T) {
	h := newHarness(t)
	p := h.loaded(cloudStub{h.stub("hub", true, true)}, cloudStub{h.stub("db", false, true)})

	ok, err := p.Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, h.toolkit.Calls)
	assert.Equal(t, []string{"check:hub", "check:db"}, h.calls)
}

func TestProvision_DeclinedResourceGroup(t *testing.T) {
	h := newHarness(t, prompt.Cancel())
	p := h.loaded(cloudStub{h.stub("hub", true, true)})

	ok, err := p.Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, h.calls, "provision:hub")
	assert.Equal(t, "Select resource group", h.prompter.Asked()[0].Title)
}

func TestProvision_SignInDeclined(t *testing.T) {
	h := newHarness(t, prompt.Choose("Cancel"))
	h.toolkit.SignedIn = false
	p := h.loaded(cloudStub{h.stub("hub", true, true)})

	ok, err := p.Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, h.toolkit.Called("Login"))
	assert.False(t, h.toolkit.Called("Subscriptions"))
	assert.Equal(t, []string{"Azure sign-in is required."}, h.notifier.Warns)
}

func TestProvision_FalseStopsWithoutFault(t *testing.T) {
	h := newHarness(t, prompt.ChooseIndex(1), prompt.ChooseIndex(0), prompt.ChooseIndex(0))
	a := h.stub("IoT Hub", true, true)
	b := h.stub("Cosmos DB", true, false)
	p := h.loaded(cloudStub{a}, cloudStub{b}, cloudStub{h.stub("Stream Analytics", true, true)})

	ok, err := p.Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"check:IoT Hub", "check:Cosmos DB", "check:Stream Analytics",
		"provision:IoT Hub", "provision:Cosmos DB",
	}, h.calls)
	assert.Equal(t, []string{"Provision canceled."}, h.notifier.Warns)
	assert.Equal(t, cloud.Target{SubscriptionID: "sub-1", ResourceGroup: "rg", Location: "westus"}, a.target)

	asked := h.prompter.Asked()
	require.Len(t, asked, 3)
	assert.Equal(t, "Provision process", asked[1].Placeholder)
	assert.Equal(t, []string{">> 1. IoT Hub   -   2. Cosmos DB   -   3. Stream Analytics"}, asked[1].Labels)
	assert.Equal(t, []string{"1. IoT Hub   -   >> 2. Cosmos DB   -   3. Stream Analytics"}, asked[2].Labels)
}

func TestProvision_ConfirmationCancelled(t *testing.T) {
	h := newHarness(t, prompt.ChooseIndex(1), prompt.Cancel())
	p := h.loaded(cloudStub{h.stub("hub", true, true)})

	ok, err := p.Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, h.calls, "provision:hub")
}

func TestProvision_SignsInAndCreatesResourceGroup(t *testing.T) {
	h := newHarness(t,
		prompt.Choose("Sign in"),
		prompt.Choose("Create Resource Group"),
		prompt.Type("iot-rg"),
		prompt.Choose("eastus"),
		prompt.ChooseIndex(0),
	)
	h.toolkit.SignedIn = false
	s := h.stub("hub", true, true)

	ok, err := h.loaded(cloudStub{s}).Provision(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, h.toolkit.Called("Login"))
	assert.True(t, h.toolkit.Called("CreateResourceGroup"))
	assert.Equal(t, cloud.Target{SubscriptionID: "sub-1", ResourceGroup: "iot-rg", Location: "eastus"}, s.target)
	assert.Zero(t, h.prompter.Remaining())
}

func TestProvision_NoSubscription(t *testing.T) {
	h := newHarness(t)
	h.toolkit.Subs = nil

	ok, err := h.loaded(cloudStub{h.stub("hub", true, true)}).Provision(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"No Azure subscription found."}, h.notifier.Warns)
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to deploy", func(t *testing.T) {
		h := newHarness(t)
		h.toolkit.SignedIn = false
		ok, err := h.loaded(deviceStub{h.stub("board", true, true)}).Deploy(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, h.toolkit.Calls)
		assert.Equal(t, []string{"The project does not contain any Azure components to be deployed."}, h.notifier.Infos)
	})

	t.Run("false result is a fault", func(t *testing.T) {
		h := newHarness(t, prompt.ChooseIndex(0), prompt.ChooseIndex(0))
		p := h.loaded(cloudStub{h.stub("Functions", true, true)}, cloudStub{h.stub("Job", true, false)}, cloudStub{h.stub("Other", true, true)})

		ok, err := p.Deploy(ctx)
		assert.False(t, ok)
		var phaseErr *PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Equal(t, "The deployment of Job failed.", err.Error())
		assert.NotContains(t, h.calls, "deploy:Other")
		assert.False(t, h.toolkit.Called("Subscriptions"), "deploy needs no resource group")
		assert.Equal(t, "Deploy process", h.prompter.Asked()[0].Placeholder)
	})

	t.Run("succeeds", func(t *testing.T) {
		h := newHarness(t, prompt.ChooseIndex(0))
		ok, err := h.loaded(cloudStub{h.stub("Functions", true, true)}).Deploy(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"Azure deploy succeeded."}, h.notifier.Infos)
	})
}

func TestConfirmLabel(t *testing.T) {
	assert.Equal(t, ">> 1. a", confirmLabel([]string{"a"}, 0))
	assert.Equal(t, "1. hub   -   >> 2. hub", confirmLabel([]string{"hub", "hub"}, 1))
}

func TestHandleLoadFailure(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, &LoadFailure{}, New(h.options()).HandleLoadFailure())

	require.NoError(t, os.MkdirAll(filepath.Join(h.root, model.DeviceFolderName), 0755))
	failure := New(h.options(h.root)).HandleLoadFailure()
	assert.Empty(t, failure.WorkspaceFile)
	assert.Contains(t, failure.Error(), "iotwb create")

	require.NoError(t, os.WriteFile(filepath.Join(h.root, model.DeviceFolderName, model.ProjectMarkerFileName), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(h.root, "weather.code-workspace"), []byte("{}"), 0644))
	failure = New(h.options(h.root)).HandleLoadFailure()
	assert.Equal(t, filepath.Join(h.root, "weather.code-workspace"), failure.WorkspaceFile)
}
