// Package fake provides in-memory collaborators for tests.
package fake

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/runtime"
)

// Settings is a map backed settings store.
type Settings struct {
	mu     sync.Mutex
	Values map[model.ConfigKey]any
}

// NewSettings returns a store holding values.
func NewSettings(values map[model.ConfigKey]any) *Settings {
	if values == nil {
		values = make(map[model.ConfigKey]any)
	}
	return &Settings{Values: values}
}

func (s *Settings) Get(key model.ConfigKey) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.Values[key].(string)
	return v
}

func (s *Settings) GetBool(key model.ConfigKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.Values[key].(bool)
	return v
}

func (s *Settings) Update(key model.ConfigKey, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Values[key] = value
	return nil
}

// Notifier records messages and events. Properties holds the properties of
// each event in Events.
type Notifier struct {
	mu         sync.Mutex
	Infos      []string
	Warns      []string
	Errors     []string
	Events     []string
	Properties []map[string]string
}

func (n *Notifier) Info(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Infos = append(n.Infos, message)
}

func (n *Notifier) Warn(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Warns = append(n.Warns, message)
}

func (n *Notifier) Error(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, message)
}

func (n *Notifier) Track(_ context.Context, event string, properties map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, event)
	n.Properties = append(n.Properties, properties)
}

// Toolkit is a cloud.Toolkit with canned answers. Calls records the
// invoked method names in order.
type Toolkit struct {
	mu sync.Mutex

	SignedIn    bool
	LoginErr    error
	Subs        []cloud.Subscription
	Groups      []cloud.ResourceGroup
	Hubs        []cloud.IoTHub
	DeviceList  []cloud.DeviceIdentity
	Endpoint    string
	Calls       []string
	Queries     []string
	AppSettings map[string]string
}

// NewToolkit returns a signed in toolkit with one subscription and one
// resource group.
func NewToolkit() *Toolkit {
	return &Toolkit{
		SignedIn: true,
		Subs:     []cloud.Subscription{{ID: "sub-1", Name: "Dev", IsDefault: true}},
		Groups:   []cloud.ResourceGroup{{Name: "rg", Location: "westus"}},
		Endpoint: "https://acc.documents.azure.com:443/",
	}
}

func (t *Toolkit) call(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, name)
}

// Called reports whether method name was invoked.
func (t *Toolkit) Called(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.Calls {
		if c == name {
			return true
		}
	}
	return false
}

func (t *Toolkit) LoggedIn(context.Context) (bool, error) {
	t.call("LoggedIn")
	return t.SignedIn, nil
}

func (t *Toolkit) Login(context.Context) error {
	t.call("Login")
	if t.LoginErr != nil {
		return t.LoginErr
	}
	t.SignedIn = true
	return nil
}

func (t *Toolkit) Subscriptions(context.Context) ([]cloud.Subscription, error) {
	t.call("Subscriptions")
	return t.Subs, nil
}

func (t *Toolkit) ResourceGroups(context.Context, string) ([]cloud.ResourceGroup, error) {
	t.call("ResourceGroups")
	return t.Groups, nil
}

func (t *Toolkit) CreateResourceGroup(_ context.Context, _, name, location string) (*cloud.ResourceGroup, error) {
	t.call("CreateResourceGroup")
	group := cloud.ResourceGroup{Name: name, Location: location}
	t.Groups = append(t.Groups, group)
	return &group, nil
}

func (t *Toolkit) Locations(context.Context, string) ([]string, error) {
	t.call("Locations")
	return []string{"eastus", "westus"}, nil
}

func (t *Toolkit) IoTHubs(context.Context, cloud.Target) ([]cloud.IoTHub, error) {
	t.call("IoTHubs")
	return t.Hubs, nil
}

func (t *Toolkit) CreateIoTHub(_ context.Context, target cloud.Target, name, _ string) (*cloud.IoTHub, error) {
	t.call("CreateIoTHub")
	hub := cloud.IoTHub{Name: name, ResourceGroup: target.ResourceGroup, Location: target.Location}
	t.Hubs = append(t.Hubs, hub)
	return &hub, nil
}

func (t *Toolkit) IoTHubConnectionString(_ context.Context, _ cloud.Target, hubName string) (string, error) {
	t.call("IoTHubConnectionString")
	return HubConnectionString(hubName), nil
}

func (t *Toolkit) Devices(context.Context, string) ([]cloud.DeviceIdentity, error) {
	t.call("Devices")
	return t.DeviceList, nil
}

func (t *Toolkit) CreateDevice(_ context.Context, _, deviceID string) (*cloud.DeviceIdentity, error) {
	t.call("CreateDevice")
	dev := cloud.DeviceIdentity{DeviceID: deviceID}
	t.DeviceList = append(t.DeviceList, dev)
	return &dev, nil
}

func (t *Toolkit) DeviceConnectionString(_ context.Context, hubConnectionString, deviceID string) (string, error) {
	t.call("DeviceConnectionString")
	return hubConnectionString + ";DeviceId=" + deviceID, nil
}

func (t *Toolkit) CreateFunctionApp(context.Context, cloud.Target, string) error {
	t.call("CreateFunctionApp")
	return nil
}

func (t *Toolkit) SetFunctionAppSettings(_ context.Context, _ cloud.Target, _ string, settings map[string]string) error {
	t.call("SetFunctionAppSettings")
	t.AppSettings = settings
	return nil
}

func (t *Toolkit) PublishFunctionApp(context.Context, string, string) error {
	t.call("PublishFunctionApp")
	return nil
}

func (t *Toolkit) CreateCosmosDB(context.Context, cloud.Target, string, string, string) (string, error) {
	t.call("CreateCosmosDB")
	return t.Endpoint, nil
}

func (t *Toolkit) CreateStreamAnalyticsJob(context.Context, cloud.Target, string) error {
	t.call("CreateStreamAnalyticsJob")
	return nil
}

func (t *Toolkit) UpdateStreamAnalyticsQuery(_ context.Context, _ cloud.Target, _, query string) error {
	t.call("UpdateStreamAnalyticsQuery")
	t.Queries = append(t.Queries, query)
	return nil
}

func (t *Toolkit) StartStreamAnalyticsJob(context.Context, cloud.Target, string) error {
	t.call("StartStreamAnalyticsJob")
	return nil
}

// HubConnectionString is the connection string the fake toolkit returns
// for hubName.
func HubConnectionString(hubName string) string {
	return "HostName=" + hubName + ".azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey=key"
}

// Runner answers commands by the longest matching argument prefix. The
// first argument (the tool path) is ignored.
type Runner struct {
	mu       sync.Mutex
	Outputs  map[string]string
	ExitCode int
	Calls    []string
}

func (r *Runner) match(cmd *exec.Cmd) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := strings.Join(cmd.Args[1:], " ")
	r.Calls = append(r.Calls, line)
	prefixes := make([]string, 0, len(r.Outputs))
	for p := range r.Outputs {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return p
		}
	}
	return ""
}

func (r *Runner) Capture(_ context.Context, cmd *exec.Cmd) ([]byte, error) {
	prefix := r.match(cmd)
	out, ok := r.Outputs[prefix]
	if !ok {
		return nil, fmt.Errorf("%s: no canned output", strings.Join(cmd.Args, " "))
	}
	return []byte(out), nil
}

func (r *Runner) Stream(_ context.Context, cmd *exec.Cmd) (*runtime.Result, error) {
	r.match(cmd)
	return &runtime.Result{ExitCode: r.ExitCode, Screen: []string{"done"}}, nil
}
