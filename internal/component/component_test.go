package component

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/fake"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
	"github.com/lazyvibe/iotwb/internal/store"
)

type testEnv struct {
	Env
	settings *fake.Settings
	toolkit  *fake.Toolkit
	runner   *fake.Runner
	notifier *fake.Notifier
	configs  *store.AzureConfigFile
}

func newTestEnv(t *testing.T, answers ...prompt.Answer) *testEnv {
	t.Helper()
	root := t.TempDir()
	tools := t.TempDir()
	cli := filepath.Join(tools, "arduino-cli")
	require.NoError(t, os.WriteFile(cli, []byte("#!/bin/sh\n"), 0755))

	te := &testEnv{
		settings: fake.NewSettings(nil),
		toolkit:  fake.NewToolkit(),
		runner:   &fake.Runner{Outputs: map[string]string{}},
		notifier: &fake.Notifier{},
		configs:  store.NewAzureConfigFile(root),
	}
	require.NoError(t, te.configs.CreateIfNotExists(context.Background()))
	te.Env = Env{
		Root:     root,
		Settings: te.settings,
		Configs:  te.configs,
		Prompter: prompt.NewScripted(answers...),
		Toolkit:  te.toolkit,
		Runner:   te.runner,
		Drivers:  driver.NewRegistry(driver.Config{ArduinoCLIPath: cli}),
		Notifier: te.notifier,
		Logger:   arbor.NewLogger(),
	}
	return te
}

var target = cloud.Target{SubscriptionID: "sub-1", ResourceGroup: "rg", Location: "westus"}

func TestCapabilitiesOf(t *testing.T) {
	env := newTestEnv(t).Env
	devkit, _ := board.Default().Find(model.BoardDevKit)
	button, _ := board.Default().Find(model.BoardIoTButton)
	arduino, err := NewDevice(env, devkit, model.DeviceFolderName, "basic")
	require.NoError(t, err)
	iotButton, err := NewDevice(env, button, model.DeviceFolderName, "")
	require.NoError(t, err)

	tests := []struct {
		component Component
		want      Capabilities
	}{
		{arduino, CanLoad | CanCreate | CanCompile | CanUpload},
		{iotButton, CanLoad | CanCreate | CanCompile | CanUpload},
		{NewIoTHub(env, ""), CanLoad | CanCreate | CanProvision},
		{NewIoTHubDevice(env, nil), CanProvision},
		{NewAzureFunctions(env, "", model.FunctionFolderName, nil), CanLoad | CanCreate | CanProvision | CanDeploy},
		{NewCosmosDB(env, "", nil), CanLoad | CanCreate | CanProvision},
		{NewStreamAnalyticsJob(env, "", nil), CanLoad | CanCreate | CanProvision | CanDeploy},
	}
	for _, tt := range tests {
		t.Run(string(tt.component.Type()), func(t *testing.T) {
			assert.Equal(t, tt.want, CapabilitiesOf(tt.component))
		})
	}

	assert.Equal(t, "Load|Create|Provision", (CanLoad | CanCreate | CanProvision).String())
	assert.Equal(t, "None", Capabilities(0).String())
	assert.True(t, (CanLoad | CanDeploy).Has(CanDeploy))
	assert.False(t, CanLoad.Has(CanLoad|CanDeploy))
}

func TestNewDevice_UnsupportedBoard(t *testing.T) {
	_, err := NewDevice(newTestEnv(t).Env, &board.Board{ID: "x", Kind: "unknown"}, "Device", "")
	assert.ErrorIs(t, err, ErrUnsupportedBoard)
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t).Env
	hub := NewIoTHub(env, "hub1")
	db := NewCosmosDB(env, "db1", nil)
	built := map[string]Component{hub.ID(): hub, db.ID(): db}
	lookup := func(id string) (Component, bool) {
		c, ok := built[id]
		return c, ok
	}

	deps, err := Resolve([]model.DependencyConfig{
		{ID: "hub1", Type: model.DependencyInput},
		{ID: "db1", Type: model.DependencyOther},
	}, lookup)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Same(t, hub, deps[0].Component)
	assert.Equal(t, model.DependencyOther, deps[1].Type)
	assert.Equal(t, []model.DependencyConfig{
		{ID: "hub1", Type: model.DependencyInput},
		{ID: "db1", Type: model.DependencyOther},
	}, ToConfigs(deps))

	_, err = Resolve([]model.DependencyConfig{{ID: "later", Type: model.DependencyInput}}, lookup)
	assert.ErrorIs(t, err, ErrComponentNotFound)
	assert.Contains(t, err.Error(), "later")
}

func TestResourceRef(t *testing.T) {
	env := newTestEnv(t).Env
	assert.Equal(t, "iothub-hub1", ResourceRef(NewIoTHub(env, "hub1")))
	assert.Equal(t, "cosmosdb-db1", ResourceRef(NewCosmosDB(env, "db1", nil)))
	assert.Equal(t, "azurefunctions-f", ResourceRef(NewAzureFunctions(env, "f", "Functions", nil)))
}

func TestRenderQuery(t *testing.T) {
	env := newTestEnv(t).Env
	deps := []Dependency{
		{Component: NewIoTHub(env, "hub1"), Type: model.DependencyInput},
		{Component: NewCosmosDB(env, "db1", nil), Type: model.DependencyOther},
	}

	query, err := DefaultQuery()
	require.NoError(t, err)
	rendered := RenderQuery(query, deps)
	assert.Contains(t, rendered, `"iothub-hub1"`)
	assert.Contains(t, rendered, `"cosmosdb-db1"`)
	assert.NotContains(t, rendered, QueryInputPlaceholder)
	assert.NotContains(t, rendered, QueryOutputPlaceholder)

	t.Run("replaces only the first occurrence", func(t *testing.T) {
		got := RenderQuery("SELECT * INTO [output] FROM [input] UNION [input]", deps)
		assert.Equal(t, `SELECT * INTO "cosmosdb-db1" FROM "iothub-hub1" UNION [input]`, got)
	})

	t.Run("keeps placeholders without dependency", func(t *testing.T) {
		got := RenderQuery("FROM [input] INTO [output]", deps[:1])
		assert.Equal(t, `FROM "iothub-hub1" INTO [output]`, got)
	})
}
