// Package store provides persistence for project component records and
// scalar project settings.
package store

import (
	"context"
	"errors"

	"github.com/lazyvibe/iotwb/internal/model"
)

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a duplicate entity.
	ErrAlreadyExists = errors.New("already exists")
)

// ComponentStore defines the interface for the persisted component list of
// one project.
type ComponentStore interface {
	// CreateIfNotExists initializes an empty store. It is a no-op when the
	// store already exists.
	CreateIfNotExists(ctx context.Context) error
	// Components returns the records in persisted order.
	Components(ctx context.Context) ([]model.ComponentConfig, error)
	// Component retrieves a record by id.
	Component(ctx context.Context, id string) (*model.ComponentConfig, error)
	// Append adds a record at the end of the list.
	Append(ctx context.Context, cfg *model.ComponentConfig) error
	// UpdateComponentInfo merges provisioning values into a record.
	UpdateComponentInfo(ctx context.Context, id string, values map[string]string) error
}

// Settings defines the interface for scalar project settings.
type Settings interface {
	// Get returns the string value of key, or "" when unset.
	Get(key model.ConfigKey) string
	// GetBool returns the boolean value of key, false when unset.
	GetBool(key model.ConfigKey) bool
	// Update stores value under key.
	Update(key model.ConfigKey, value any) error
}
