package component

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lazyvibe/iotwb/internal/model"
)

// ErrComponentNotFound is returned when a dependency references a
// component that has not been constructed yet.
var ErrComponentNotFound = errors.New("component not found")

// Dependency is a typed edge from the owning component to Component.
type Dependency struct {
	Component Component
	Type      model.DependencyType
}

// Lookup finds an already constructed component by id.
type Lookup func(id string) (Component, bool)

// Resolve turns persisted edges into dependencies. Only components that
// were constructed earlier can be found, so forward references and cycles
// both surface as ErrComponentNotFound.
func Resolve(configs []model.DependencyConfig, lookup Lookup) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(configs))
	for _, cfg := range configs {
		c, ok := lookup(cfg.ID)
		if !ok {
			return nil, fmt.Errorf("cannot find component with id %s: %w", cfg.ID, ErrComponentNotFound)
		}
		deps = append(deps, Dependency{Component: c, Type: cfg.Type})
	}
	return deps, nil
}

// ToConfigs returns the persisted form of deps.
func ToConfigs(deps []Dependency) []model.DependencyConfig {
	configs := make([]model.DependencyConfig, 0, len(deps))
	for _, d := range deps {
		configs = append(configs, model.DependencyConfig{ID: d.Component.ID(), Type: d.Type})
	}
	return configs
}

// First returns the first dependency of type t.
func First(deps []Dependency, t model.DependencyType) (Dependency, bool) {
	for _, d := range deps {
		if d.Type == t {
			return d, true
		}
	}
	return Dependency{}, false
}

// ResourceRef is the identifier other resources use to refer to c, e.g.
// "iothub-<id>". It names query inputs and outputs and Function bindings.
func ResourceRef(c Component) string {
	return strings.ToLower(string(c.Type())) + "-" + c.ID()
}

// ErrMissingDependency is returned when a component lacks an edge it
// needs, such as the Input hub of Azure Functions.
var ErrMissingDependency = errors.New("missing dependency")
