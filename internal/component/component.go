// Package component implements the building blocks of an IoT Workbench
// project: the device and the Azure services it talks to.
package component

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/notify"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/internal/runtime"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
	"github.com/lazyvibe/iotwb/internal/store"
)

// Component is a project element. Every capability method returns false
// for a recoverable negative outcome (including user cancellation) and an
// error for a fault.
type Component interface {
	ID() string
	Name() string
	Type() model.ComponentType
	// CheckPrerequisites validates that the component can run, e.g. that
	// its toolchain is installed.
	CheckPrerequisites(ctx context.Context) (bool, error)
}

// Loadable components read their state from disk.
type Loadable interface {
	Load(ctx context.Context) (bool, error)
}

// Creatable components scaffold files for a new project.
type Creatable interface {
	Create(ctx context.Context) (bool, error)
}

// Compilable components build device code.
type Compilable interface {
	Compile(ctx context.Context) (bool, error)
}

// Uploadable components transfer device code to the board.
type Uploadable interface {
	Upload(ctx context.Context) (bool, error)
}

// Provisionable components create cloud resources in target.
type Provisionable interface {
	Provision(ctx context.Context, target cloud.Target) (bool, error)
}

// Deployable components push code or configuration to provisioned
// resources.
type Deployable interface {
	Deploy(ctx context.Context) (bool, error)
}

// Device is implemented by every board component.
type Device interface {
	Component
	// Board returns the board id.
	Board() string
	// ConfigDeviceSettings writes connection settings to the device.
	ConfigDeviceSettings(ctx context.Context) (bool, error)
}

// ConnectionStringProvider is implemented by components that know an IoT
// Hub connection string once provisioned.
type ConnectionStringProvider interface {
	ConnectionString() string
}

// Capabilities is the set of capabilities a component implements.
type Capabilities uint8

const (
	CanLoad Capabilities = 1 << iota
	CanCreate
	CanCompile
	CanUpload
	CanProvision
	CanDeploy
)

var capabilityNames = []struct {
	flag Capabilities
	name string
}{
	{CanLoad, "Load"},
	{CanCreate, "Create"},
	{CanCompile, "Compile"},
	{CanUpload, "Upload"},
	{CanProvision, "Provision"},
	{CanDeploy, "Deploy"},
}

// CapabilitiesOf resolves the capability set of c. The set is fixed per
// variant, so callers resolve it once and keep it next to the component.
func CapabilitiesOf(c Component) Capabilities {
	var caps Capabilities
	if _, ok := c.(Loadable); ok {
		caps |= CanLoad
	}
	if _, ok := c.(Creatable); ok {
		caps |= CanCreate
	}
	if _, ok := c.(Compilable); ok {
		caps |= CanCompile
	}
	if _, ok := c.(Uploadable); ok {
		caps |= CanUpload
	}
	if _, ok := c.(Provisionable); ok {
		caps |= CanProvision
	}
	if _, ok := c.(Deployable); ok {
		caps |= CanDeploy
	}
	return caps
}

// Has reports whether every flag in flag is set.
func (c Capabilities) Has(flag Capabilities) bool {
	return c&flag == flag
}

func (c Capabilities) String() string {
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// Env carries the collaborators components use. It is built once per
// project root.
type Env struct {
	// Root is the project root folder.
	Root     string
	Settings store.Settings
	Configs  store.ComponentStore
	Prompter prompt.Prompter
	Toolkit  cloud.Toolkit
	Runner   runtime.Runner
	Drivers  *driver.Registry
	Notifier notify.Notifier
	Logger   arbor.ILogger
}
