package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DependencyConfig is the persisted form of a dependency edge.
type DependencyConfig struct {
	ID   string         `json:"id" validate:"required"`
	Type DependencyType `json:"type" validate:"required,oneof=Input Output Other"`
}

// ComponentInfo holds values a component records about its cloud resource
// after provisioning, such as the hub name or the function app name.
type ComponentInfo struct {
	Values map[string]string `json:"values,omitempty"`
}

// GetValues returns the recorded values; it is safe on a nil receiver.
func (i *ComponentInfo) GetValues() map[string]string {
	if i == nil {
		return nil
	}
	return i.Values
}

// ComponentConfig is one persisted component record.
type ComponentConfig struct {
	// ID is the stable component identifier.
	ID string `json:"id" validate:"required"`
	// Folder is the component subfolder relative to the project root, if any.
	Folder string `json:"folder"`
	// Name is an optional display name.
	Name string `json:"name"`
	// Type selects the component variant. Unknown types are kept and
	// rejected when the project is loaded.
	Type ComponentType `json:"type" validate:"required"`
	// Dependencies are the edges to components listed earlier.
	Dependencies []DependencyConfig `json:"dependencies" validate:"dive"`
	// ComponentInfo carries provisioning results.
	ComponentInfo *ComponentInfo `json:"componentInfo,omitempty"`
}

// AzureConfigs is the root of the persisted component config file.
type AzureConfigs struct {
	ComponentConfigs []ComponentConfig `json:"componentConfigs" validate:"dive"`
}

var validate = validator.New()

// Validate checks required fields and enumerations on a record.
func (c *ComponentConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("component config %q: %w", c.ID, err)
	}
	return nil
}

// Value returns a recorded provisioning value, or "".
func (c *ComponentConfig) Value(key string) string {
	return c.ComponentInfo.GetValues()[key]
}

// Validate checks every record and rejects duplicate ids.
func (a *AzureConfigs) Validate() error {
	seen := make(map[string]bool, len(a.ComponentConfigs))
	for i := range a.ComponentConfigs {
		cfg := &a.ComponentConfigs[i]
		if err := cfg.Validate(); err != nil {
			return err
		}
		if seen[cfg.ID] {
			return fmt.Errorf("component config %q: duplicate id", cfg.ID)
		}
		seen[cfg.ID] = true
	}
	return nil
}
