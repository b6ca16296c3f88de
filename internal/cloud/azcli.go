package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/runtime"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
)

// ErrToolMissing is returned when the az or func executable cannot be found.
var ErrToolMissing = errors.New("tool not found")

const (
	functionsRuntime = "node"
	functionsVersion = "4"
	asaTransformName = "Transformation"
)

// AzCLI implements Toolkit by running the Azure CLI and Functions Core
// Tools.
type AzCLI struct {
	runner  runtime.Runner
	drivers *driver.Registry
	logger  arbor.ILogger
}

// NewAzCLI creates an AzCLI.
func NewAzCLI(runner runtime.Runner, drivers *driver.Registry, logger arbor.ILogger) *AzCLI {
	return &AzCLI{runner: runner, drivers: drivers, logger: logger}
}

// LoggedIn runs "az account show"; a failing call means signed out.
func (a *AzCLI) LoggedIn(ctx context.Context) (bool, error) {
	if !a.drivers.Available(driver.ToolAz) {
		return false, fmt.Errorf("az: %w", ErrToolMissing)
	}
	if _, err := a.capture(ctx, "account", "show"); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		a.logger.Debug().Err(err).Msg("Azure account not signed in")
		return false, nil
	}
	return true, nil
}

// Login runs "az login" on a terminal so device-code instructions show.
func (a *AzCLI) Login(ctx context.Context) error {
	return a.stream(ctx, driver.ToolAz, "", "login")
}

func (a *AzCLI) Subscriptions(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	if err := a.captureJSON(ctx, &subs, "account", "list"); err != nil {
		return nil, err
	}
	return subs, nil
}

func (a *AzCLI) ResourceGroups(ctx context.Context, subscriptionID string) ([]ResourceGroup, error) {
	var groups []ResourceGroup
	if err := a.captureJSON(ctx, &groups, "group", "list", "--subscription", subscriptionID); err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (a *AzCLI) CreateResourceGroup(ctx context.Context, subscriptionID, name, location string) (*ResourceGroup, error) {
	var group ResourceGroup
	err := a.captureJSON(ctx, &group, "group", "create",
		"--subscription", subscriptionID, "--name", name, "--location", location)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (a *AzCLI) Locations(ctx context.Context, subscriptionID string) ([]string, error) {
	var locations []struct {
		Name string `json:"name"`
	}
	if err := a.captureJSON(ctx, &locations, "account", "list-locations", "--subscription", subscriptionID); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(locations))
	for _, l := range locations {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (a *AzCLI) IoTHubs(ctx context.Context, target Target) ([]IoTHub, error) {
	var hubs []IoTHub
	if err := a.captureJSON(ctx, &hubs, "iot", "hub", "list", "--subscription", target.SubscriptionID); err != nil {
		return nil, err
	}
	return hubs, nil
}

func (a *AzCLI) CreateIoTHub(ctx context.Context, target Target, name, sku string) (*IoTHub, error) {
	var hub IoTHub
	err := a.captureJSON(ctx, &hub, "iot", "hub", "create",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--location", target.Location,
		"--name", name, "--sku", sku)
	if err != nil {
		return nil, err
	}
	return &hub, nil
}

func (a *AzCLI) IoTHubConnectionString(ctx context.Context, target Target, hubName string) (string, error) {
	args := []string{"iot", "hub", "connection-string", "show", "--subscription", target.SubscriptionID, "--hub-name", hubName}
	if target.ResourceGroup != "" {
		args = append(args, "--resource-group", target.ResourceGroup)
	}
	return a.connectionString(ctx, args...)
}

func (a *AzCLI) Devices(ctx context.Context, hubConnectionString string) ([]DeviceIdentity, error) {
	var devices []DeviceIdentity
	if err := a.captureJSON(ctx, &devices, "iot", "hub", "device-identity", "list", "--login", hubConnectionString); err != nil {
		return nil, err
	}
	return devices, nil
}

func (a *AzCLI) CreateDevice(ctx context.Context, hubConnectionString, deviceID string) (*DeviceIdentity, error) {
	var device DeviceIdentity
	err := a.captureJSON(ctx, &device, "iot", "hub", "device-identity", "create",
		"--login", hubConnectionString, "--device-id", deviceID)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (a *AzCLI) DeviceConnectionString(ctx context.Context, hubConnectionString, deviceID string) (string, error) {
	return a.connectionString(ctx, "iot", "hub", "device-identity", "connection-string", "show",
		"--login", hubConnectionString, "--device-id", deviceID)
}

// CreateFunctionApp creates a consumption plan Function App and the storage
// account it needs.
func (a *AzCLI) CreateFunctionApp(ctx context.Context, target Target, name string) error {
	storage := StorageAccountName(name)
	_, err := a.capture(ctx, "storage", "account", "create",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--location", target.Location,
		"--name", storage, "--sku", "Standard_LRS")
	if err != nil {
		return err
	}
	_, err = a.capture(ctx, "functionapp", "create",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--consumption-plan-location", target.Location,
		"--name", name,
		"--storage-account", storage,
		"--runtime", functionsRuntime,
		"--functions-version", functionsVersion)
	return err
}

func (a *AzCLI) SetFunctionAppSettings(ctx context.Context, target Target, name string, settings map[string]string) error {
	if len(settings) == 0 {
		return nil
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"functionapp", "config", "appsettings", "set",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--name", name, "--settings"}
	for _, k := range keys {
		args = append(args, k+"="+settings[k])
	}
	_, err := a.capture(ctx, args...)
	return err
}

// PublishFunctionApp runs "func azure functionapp publish" in folder.
func (a *AzCLI) PublishFunctionApp(ctx context.Context, folder, name string) error {
	if !a.drivers.Available(driver.ToolFunc) {
		return fmt.Errorf("func: %w", ErrToolMissing)
	}
	return a.stream(ctx, driver.ToolFunc, folder, "azure", "functionapp", "publish", name)
}

func (a *AzCLI) CreateCosmosDB(ctx context.Context, target Target, account, database, container string) (string, error) {
	var created struct {
		DocumentEndpoint string `json:"documentEndpoint"`
	}
	scope := []string{"--subscription", target.SubscriptionID, "--resource-group", target.ResourceGroup}

	err := a.captureJSON(ctx, &created, append([]string{"cosmosdb", "create", "--name", account}, scope...)...)
	if err != nil {
		return "", err
	}
	_, err = a.capture(ctx, append([]string{"cosmosdb", "sql", "database", "create",
		"--account-name", account, "--name", database}, scope...)...)
	if err != nil {
		return "", err
	}
	_, err = a.capture(ctx, append([]string{"cosmosdb", "sql", "container", "create",
		"--account-name", account, "--database-name", database,
		"--name", container, "--partition-key-path", "/deviceId"}, scope...)...)
	if err != nil {
		return "", err
	}
	return created.DocumentEndpoint, nil
}

func (a *AzCLI) CreateStreamAnalyticsJob(ctx context.Context, target Target, name string) error {
	_, err := a.capture(ctx, "stream-analytics", "job", "create",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--location", target.Location,
		"--job-name", name)
	return err
}

func (a *AzCLI) UpdateStreamAnalyticsQuery(ctx context.Context, target Target, job, query string) error {
	_, err := a.capture(ctx, "stream-analytics", "transformation", "create",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--job-name", job,
		"--name", asaTransformName,
		"--streaming-units", "1",
		"--saql", query)
	return err
}

func (a *AzCLI) StartStreamAnalyticsJob(ctx context.Context, target Target, job string) error {
	return a.stream(ctx, driver.ToolAz, "", "stream-analytics", "job", "start",
		"--subscription", target.SubscriptionID,
		"--resource-group", target.ResourceGroup,
		"--job-name", job,
		"--output-start-mode", "JobStartTime")
}

func (a *AzCLI) connectionString(ctx context.Context, args ...string) (string, error) {
	var out struct {
		ConnectionString string `json:"connectionString"`
	}
	if err := a.captureJSON(ctx, &out, args...); err != nil {
		return "", err
	}
	if out.ConnectionString == "" {
		return "", fmt.Errorf("az %s: empty connection string", strings.Join(args[:3], " "))
	}
	return out.ConnectionString, nil
}

func (a *AzCLI) capture(ctx context.Context, args ...string) ([]byte, error) {
	cmd, err := a.drivers.Command(driver.ToolAz, "", append(args, "--output", "json")...)
	if err != nil {
		return nil, err
	}
	return a.runner.Capture(ctx, cmd)
}

func (a *AzCLI) captureJSON(ctx context.Context, v any, args ...string) error {
	out, err := a.capture(ctx, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("az %s: decoding output: %w", strings.Join(args[:min(len(args), 3)], " "), err)
	}
	return nil
}

func (a *AzCLI) stream(ctx context.Context, tool driver.Tool, dir string, args ...string) error {
	cmd, err := a.drivers.Command(tool, dir, args...)
	if err != nil {
		return err
	}
	res, err := a.runner.Stream(ctx, cmd)
	if err != nil {
		return err
	}
	if !res.Success() {
		for _, line := range runtime.Tail(res.Screen, 5) {
			a.logger.Error().Str("tool", string(tool)).Msg(line)
		}
		return fmt.Errorf("%s %s exited with code %d", tool, args[0], res.ExitCode)
	}
	return nil
}

// StorageAccountName derives a valid storage account name (3-24 lowercase
// letters and digits) from a resource name.
func StorageAccountName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	s := b.String() + "storage"
	if len(s) > 24 {
		s = s[:24]
	}
	return s
}
