package cloud

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/runtime"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
)

// fakeRunner answers commands by the longest matching argument prefix.
type fakeRunner struct {
	outputs  map[string]string
	failures map[string]bool
	exitCode int
	calls    []string
}

func (f *fakeRunner) match(cmd *exec.Cmd) (string, bool) {
	line := strings.Join(cmd.Args[1:], " ")
	f.calls = append(f.calls, line)
	best := ""
	for prefix := range f.outputs {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return best, f.failures[best]
}

func (f *fakeRunner) Capture(_ context.Context, cmd *exec.Cmd) ([]byte, error) {
	prefix, fail := f.match(cmd)
	if fail {
		return nil, errors.New("exit status 1")
	}
	return []byte(f.outputs[prefix]), nil
}

func (f *fakeRunner) Stream(_ context.Context, cmd *exec.Cmd) (*runtime.Result, error) {
	f.match(cmd)
	return &runtime.Result{ExitCode: f.exitCode, Screen: []string{"done"}}, nil
}

func newTestCLI(t *testing.T, runner *fakeRunner) *AzCLI {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"az", "func"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0755))
	}
	drivers := driver.NewRegistry(driver.Config{
		AzPath:   filepath.Join(dir, "az"),
		FuncPath: filepath.Join(dir, "func"),
	})
	return NewAzCLI(runner, drivers, arbor.NewLogger())
}

var target = Target{SubscriptionID: "sub-1", ResourceGroup: "rg", Location: "westus"}

func TestAzCLI_LoggedIn(t *testing.T) {
	ctx := context.Background()

	runner := &fakeRunner{outputs: map[string]string{"account show": `{"id":"sub-1"}`}}
	ok, err := newTestCLI(t, runner).LoggedIn(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"account show --output json"}, runner.calls)

	runner = &fakeRunner{outputs: map[string]string{"account show": ""}, failures: map[string]bool{"account show": true}}
	ok, err = newTestCLI(t, runner).LoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAzCLI_LoggedInWithoutAz(t *testing.T) {
	drivers := driver.NewRegistry(driver.Config{AzPath: filepath.Join(t.TempDir(), "missing", "az")})
	_, err := NewAzCLI(&fakeRunner{}, drivers, arbor.NewLogger()).LoggedIn(context.Background())
	assert.ErrorIs(t, err, ErrToolMissing)
}

func TestAzCLI_Listing(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"account list":   `[{"id":"sub-1","name":"Dev","isDefault":true}]`,
		"group list":     `[{"name":"zeta","location":"eastus"},{"name":"alpha","location":"westus"}]`,
		"iot hub list":   `[{"name":"hub1","resourcegroup":"rg","location":"westus"}]`,
		"account list-l": `[{"name":"westus"},{"name":"eastus"}]`,
	}}
	cli := newTestCLI(t, runner)
	ctx := context.Background()

	subs, err := cli.Subscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Subscription{{ID: "sub-1", Name: "Dev", IsDefault: true}}, subs)

	groups, err := cli.ResourceGroups(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", groups[0].Name)

	hubs, err := cli.IoTHubs(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, []IoTHub{{Name: "hub1", ResourceGroup: "rg", Location: "westus"}}, hubs)

	locations, err := cli.Locations(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"eastus", "westus"}, locations)
}

func TestAzCLI_ConnectionStrings(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"iot hub connection-string show":                 `{"connectionString":"HostName=hub1;SharedAccessKey=k"}`,
		"iot hub device-identity connection-string show": `{"connectionString":"HostName=hub1;DeviceId=d1"}`,
		"iot hub device-identity list":                   `[]`,
	}}
	cli := newTestCLI(t, runner)
	ctx := context.Background()

	cs, err := cli.IoTHubConnectionString(ctx, target, "hub1")
	require.NoError(t, err)
	assert.Equal(t, "HostName=hub1;SharedAccessKey=k", cs)
	assert.Contains(t, runner.calls[0], "--hub-name hub1 --resource-group rg")

	dcs, err := cli.DeviceConnectionString(ctx, cs, "d1")
	require.NoError(t, err)
	assert.Equal(t, "HostName=hub1;DeviceId=d1", dcs)

	devices, err := cli.Devices(ctx, cs)
	require.NoError(t, err)
	assert.Empty(t, devices)

	runner.outputs["iot hub connection-string show"] = `{}`
	_, err = cli.IoTHubConnectionString(ctx, target, "hub1")
	assert.Error(t, err)
}

func TestAzCLI_FunctionApp(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"storage account create":         `{}`,
		"functionapp create":             `{}`,
		"functionapp config appsettings": `[]`,
		"azure functionapp publish":      ``,
	}}
	cli := newTestCLI(t, runner)
	ctx := context.Background()

	require.NoError(t, cli.CreateFunctionApp(ctx, target, "weather-func"))
	require.NoError(t, cli.SetFunctionAppSettings(ctx, target, "weather-func", map[string]string{"b": "2", "a": "1"}))
	require.NoError(t, cli.PublishFunctionApp(ctx, "/src/Functions", "weather-func"))

	require.Len(t, runner.calls, 4)
	assert.Contains(t, runner.calls[0], "--name weatherfuncstorage")
	assert.Contains(t, runner.calls[1], "--storage-account weatherfuncstorage")
	assert.Contains(t, runner.calls[2], "--settings a=1 b=2")
	assert.Equal(t, "azure functionapp publish weather-func", runner.calls[3])

	runner.exitCode = 1
	assert.Error(t, cli.PublishFunctionApp(ctx, "/src/Functions", "weather-func"))
}

func TestAzCLI_CosmosAndStreamAnalytics(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"cosmosdb create":                 `{"documentEndpoint":"https://acc.documents.azure.com:443/"}`,
		"cosmosdb sql database create":    `{}`,
		"cosmosdb sql container create":   `{}`,
		"stream-analytics job create":     `{}`,
		"stream-analytics transformation": `{}`,
		"stream-analytics job start":      ``,
	}}
	cli := newTestCLI(t, runner)
	ctx := context.Background()

	endpoint, err := cli.CreateCosmosDB(ctx, target, "acc", "db", "telemetry")
	require.NoError(t, err)
	assert.Equal(t, "https://acc.documents.azure.com:443/", endpoint)

	require.NoError(t, cli.CreateStreamAnalyticsJob(ctx, target, "job"))
	require.NoError(t, cli.UpdateStreamAnalyticsQuery(ctx, target, "job", "SELECT * INTO out FROM in"))
	require.NoError(t, cli.StartStreamAnalyticsJob(ctx, target, "job"))
	assert.Len(t, runner.calls, 6)
}

func TestStorageAccountName(t *testing.T) {
	assert.Equal(t, "weatherfuncstorage", StorageAccountName("Weather-Func"))
	assert.Len(t, StorageAccountName("a-very-long-function-app-name-indeed"), 24)
}
