package project

import (
	"fmt"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/component"
)

// Factory constructs component variants for one project root.
type Factory interface {
	Device(boardID, folder, sketch string) (component.Device, error)
	IoTHub(id string) component.Component
	IoTHubDevice(deps []component.Dependency) component.Component
	AzureFunctions(id, folder string, deps []component.Dependency) component.Component
	CosmosDB(id string, deps []component.Dependency) component.Component
	StreamAnalyticsJob(id string, deps []component.Dependency) component.Component
}

// FactoryFunc binds a Factory to the environment of a project root.
type FactoryFunc func(env component.Env) Factory

// NewFactory returns the FactoryFunc building the real variants, with
// boards looked up in catalog.
func NewFactory(catalog *board.Catalog) FactoryFunc {
	return func(env component.Env) Factory {
		return &variantFactory{env: env, catalog: catalog}
	}
}

type variantFactory struct {
	env     component.Env
	catalog *board.Catalog
}

func (f *variantFactory) Device(boardID, folder, sketch string) (component.Device, error) {
	b, ok := f.catalog.Find(boardID)
	if !ok {
		return nil, fmt.Errorf("board %q: %w", boardID, ErrUnsupportedBoard)
	}
	return component.NewDevice(f.env, b, folder, sketch)
}

func (f *variantFactory) IoTHub(id string) component.Component {
	return component.NewIoTHub(f.env, id)
}

func (f *variantFactory) IoTHubDevice(deps []component.Dependency) component.Component {
	return component.NewIoTHubDevice(f.env, deps)
}

func (f *variantFactory) AzureFunctions(id, folder string, deps []component.Dependency) component.Component {
	return component.NewAzureFunctions(f.env, id, folder, deps)
}

func (f *variantFactory) CosmosDB(id string, deps []component.Dependency) component.Component {
	return component.NewCosmosDB(f.env, id, deps)
}

func (f *variantFactory) StreamAnalyticsJob(id string, deps []component.Dependency) component.Component {
	return component.NewStreamAnalyticsJob(f.env, id, deps)
}
