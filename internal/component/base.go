package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/store"
)

// Keys recorded in componentInfo by every cloud component.
const (
	InfoSubscription  = "subscriptionId"
	InfoResourceGroup = "resourceGroup"
	InfoLocation      = "location"
)

// cloudBase carries the state shared by the Azure components: identity,
// dependencies and the provisioning values kept in the component store.
type cloudBase struct {
	id     string
	name   string
	kind   model.ComponentType
	folder string
	deps   []Dependency
	info   map[string]string
	env    Env
}

func newCloudBase(env Env, kind model.ComponentType, id, name string, deps []Dependency) cloudBase {
	if id == "" {
		id = uuid.NewString()
	}
	return cloudBase{
		id:   id,
		name: name,
		kind: kind,
		deps: deps,
		info: make(map[string]string),
		env:  env,
	}
}

func (b *cloudBase) ID() string                { return b.id }
func (b *cloudBase) Name() string              { return b.name }
func (b *cloudBase) Type() model.ComponentType { return b.kind }

// Dependencies returns the resolved edges of the component.
func (b *cloudBase) Dependencies() []Dependency { return b.deps }

// Info returns a recorded provisioning value, or "".
func (b *cloudBase) Info(key string) string { return b.info[key] }

// CheckPrerequisites always succeeds; the az CLI is checked when signing in.
func (b *cloudBase) CheckPrerequisites(_ context.Context) (bool, error) {
	return true, nil
}

// loadInfo reads the recorded provisioning values. A component without a
// record loads as unprovisioned.
func (b *cloudBase) loadInfo(ctx context.Context) (bool, error) {
	cfg, err := b.env.Configs.Component(ctx, b.id)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if cfg.Name != "" {
		b.name = cfg.Name
	}
	if cfg.Folder != "" {
		b.folder = cfg.Folder
	}
	for k, v := range cfg.ComponentInfo.GetValues() {
		b.info[k] = v
	}
	return true, nil
}

// record returns the persisted form of the component.
func (b *cloudBase) record() *model.ComponentConfig {
	return &model.ComponentConfig{
		ID:           b.id,
		Folder:       b.folder,
		Name:         b.name,
		Type:         b.kind,
		Dependencies: ToConfigs(b.deps),
	}
}

// appendRecord adds the component to the store. Appending an existing
// record is a no-op.
func (b *cloudBase) appendRecord(ctx context.Context) error {
	err := b.env.Configs.Append(ctx, b.record())
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("saving %s: %w", b.name, err)
	}
	return nil
}

// saveInfo merges values into the in-memory and persisted component info.
// The record is appended first when it does not exist yet.
func (b *cloudBase) saveInfo(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		b.info[k] = v
	}
	if err := b.appendRecord(ctx); err != nil {
		return err
	}
	if err := b.env.Configs.UpdateComponentInfo(ctx, b.id, values); err != nil {
		return fmt.Errorf("saving %s: %w", b.name, err)
	}
	return nil
}

// saveTarget records where the resource was provisioned together with
// extra values.
func (b *cloudBase) saveTarget(ctx context.Context, target cloud.Target, extra map[string]string) error {
	values := map[string]string{
		InfoSubscription:  target.SubscriptionID,
		InfoResourceGroup: target.ResourceGroup,
		InfoLocation:      target.Location,
	}
	for k, v := range extra {
		values[k] = v
	}
	return b.saveInfo(ctx, values)
}

// target returns the provisioning target recorded for the component.
func (b *cloudBase) target() cloud.Target {
	return cloud.Target{
		SubscriptionID: b.info[InfoSubscription],
		ResourceGroup:  b.info[InfoResourceGroup],
		Location:       b.info[InfoLocation],
	}
}

// dependency returns the component of the first edge of type t.
func (b *cloudBase) dependency(t model.DependencyType) Component {
	if d, ok := First(b.deps, t); ok {
		return d.Component
	}
	return nil
}
