// Package project orchestrates the components of an IoT Workbench project
// through load, create, compile, upload, provision and deploy.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/component"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/notify"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/internal/runtime"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
	"github.com/lazyvibe/iotwb/internal/store"
)

var (
	// ErrNotLoaded is returned when a phase runs before Load or Create.
	ErrNotLoaded = errors.New("project is not loaded")
	// ErrComponentNotFound is returned when a persisted dependency points
	// at a component that is not constructed yet.
	ErrComponentNotFound = component.ErrComponentNotFound
	// ErrUnsupportedComponent is returned for an unknown persisted type.
	ErrUnsupportedComponent = errors.New("component not supported")
	// ErrUnsupportedBoard is returned for a board no device variant handles.
	ErrUnsupportedBoard = component.ErrUnsupportedBoard
	// ErrUnsupportedTemplate is returned for an unknown template type.
	ErrUnsupportedTemplate = errors.New("template not supported")
)

// Opener opens a created project in the editor.
type Opener interface {
	Open(ctx context.Context, workspaceFile string, newWindow bool) error
}

// Options are the collaborators of a Project.
type Options struct {
	// Folders are the absolute workspace folders; the project root is the
	// parent of the first one.
	Folders  []string
	Settings store.Settings
	Prompter prompt.Prompter
	Toolkit  cloud.Toolkit
	Runner   runtime.Runner
	Drivers  *driver.Registry
	Notifier notify.Notifier
	Opener   Opener
	Logger   arbor.ILogger
	// NewFactory builds the component factory; nil uses the board catalog.
	NewFactory FactoryFunc
}

// PhaseError reports a capability call that returned false in a phase
// where that is a fault.
type PhaseError struct {
	Component string
	Message   string
}

func (e *PhaseError) Error() string { return e.Message }

// LoadFailure explains why no project could be loaded.
type LoadFailure struct {
	// Root is the folder that was inspected, if any.
	Root string
	// WorkspaceFile is set when Root holds a project opened without its
	// workspace descriptor.
	WorkspaceFile string
}

func (e *LoadFailure) Error() string {
	if e.WorkspaceFile != "" {
		return fmt.Sprintf("%s is an IoT Workbench project, run iotwb with --workspace %s", e.Root, e.WorkspaceFile)
	}
	return "no IoT Workbench project found, run \"iotwb create\" to start one"
}

type entry struct {
	component component.Component
	caps      component.Capabilities
}

// Project is the ordered component list of one project. Each command
// builds a fresh Project and loads it from disk.
type Project struct {
	opts    Options
	logger  arbor.ILogger
	root    string
	env     component.Env
	factory Factory
	entries []entry
	loaded  bool
}

// New creates an unloaded project.
func New(opts Options) *Project {
	if opts.NewFactory == nil {
		opts.NewFactory = NewFactory(board.Default())
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}
	return &Project{opts: opts, logger: opts.Logger}
}

// Root returns the project root folder.
func (p *Project) Root() string { return p.root }

// Components returns the components in construction order.
func (p *Project) Components() []component.Component {
	list := make([]component.Component, len(p.entries))
	for i, e := range p.entries {
		list[i] = e.component
	}
	return list
}

func (p *Project) setRoot(root string) {
	p.root = root
	p.env = component.Env{
		Root:     root,
		Settings: p.opts.Settings,
		Configs:  store.NewAzureConfigFile(root),
		Prompter: p.opts.Prompter,
		Toolkit:  p.opts.Toolkit,
		Runner:   p.opts.Runner,
		Drivers:  p.opts.Drivers,
		Notifier: p.opts.Notifier,
		Logger:   p.logger,
	}
	p.factory = p.opts.NewFactory(p.env)
	p.entries = nil
}

// add appends c with its capability set resolved once.
func (p *Project) add(c component.Component) {
	p.entries = append(p.entries, entry{component: c, caps: component.CapabilitiesOf(c)})
}

// addLoaded appends c and loads it when it is Loadable. The load result
// is only logged.
func (p *Project) addLoaded(ctx context.Context, c component.Component) error {
	p.add(c)
	l, ok := c.(component.Loadable)
	if !ok {
		return nil
	}
	loaded, err := l.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", c.Name(), err)
	}
	if !loaded {
		p.logger.Warn().Str("component", c.Name()).Msg("Component did not load")
	}
	return nil
}

// Load builds the component list from the workspace settings and the
// persisted component records. It returns false when the workspace is not
// an IoT Workbench project.
func (p *Project) Load(ctx context.Context) (bool, error) {
	if len(p.opts.Folders) == 0 {
		return false, nil
	}
	devicePath := p.opts.Settings.Get(model.ConfigDevicePath)
	if devicePath == "" {
		return false, nil
	}
	boardID := p.opts.Settings.Get(model.ConfigBoardID)
	if boardID == "" {
		p.logger.Warn().Str("setting", model.ConfigBoardID.Namespaced()).Msg("Project has no board id")
		return false, nil
	}

	p.setRoot(filepath.Dir(filepath.Clean(p.opts.Folders[0])))
	if err := p.env.Configs.CreateIfNotExists(ctx); err != nil {
		return false, err
	}

	device, err := p.factory.Device(boardID, devicePath, "")
	switch {
	case errors.Is(err, ErrUnsupportedBoard):
		p.logger.Warn().Str("board", boardID).Msg("No device for board, continuing without one")
	case err != nil:
		return false, err
	default:
		if err := p.addLoaded(ctx, device); err != nil {
			return false, err
		}
	}

	records, err := p.env.Configs.Components(ctx)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		if err := p.loadDefault(ctx); err != nil {
			return false, err
		}
	} else {
		ok, err := p.replay(ctx, records)
		if err != nil || !ok {
			return false, err
		}
	}

	for _, e := range p.entries {
		ok, err := e.component.CheckPrerequisites(ctx)
		if err != nil {
			p.logger.Warn().Str("component", e.component.Name()).Err(err).Msg("Prerequisite check failed")
			continue
		}
		p.logger.Debug().Str("component", e.component.Name()).Bool("ready", ok).Msg("Prerequisites checked")
	}

	p.loaded = true
	p.logger.Info().Str("root", p.root).Int("components", len(p.entries)).Msg("Project loaded")
	return true, nil
}

// replay constructs the persisted components in order. Dependencies are
// looked up among the components constructed so far.
func (p *Project) replay(ctx context.Context, records []model.ComponentConfig) (bool, error) {
	built := make(map[string]component.Component, len(records))
	lookup := func(id string) (component.Component, bool) {
		c, ok := built[id]
		return c, ok
	}

	for _, rec := range records {
		deps, err := component.Resolve(rec.Dependencies, lookup)
		if err != nil {
			return false, err
		}

		var c component.Component
		switch rec.Type {
		case model.ComponentIoTHub:
			hub := p.factory.IoTHub(rec.ID)
			if err := p.addLoaded(ctx, hub); err != nil {
				return false, err
			}
			built[hub.ID()] = hub
			p.add(p.factory.IoTHubDevice([]component.Dependency{{Component: hub, Type: model.DependencyInput}}))
			continue
		case model.ComponentAzureFunctions:
			functionPath := p.opts.Settings.Get(model.ConfigFunctionPath)
			if functionPath == "" {
				p.logger.Warn().Str("setting", model.ConfigFunctionPath.Namespaced()).Msg("Azure Functions has no function path")
				return false, nil
			}
			c = p.factory.AzureFunctions(rec.ID, functionPath, deps)
		case model.ComponentCosmosDB:
			c = p.factory.CosmosDB(rec.ID, deps)
		case model.ComponentStreamAnalyticsJob:
			c = p.factory.StreamAnalyticsJob(rec.ID, deps)
		default:
			return false, fmt.Errorf("component %s of type %s: %w", rec.ID, rec.Type, ErrUnsupportedComponent)
		}

		if err := p.addLoaded(ctx, c); err != nil {
			return false, err
		}
		built[c.ID()] = c
	}
	return true, nil
}

// loadDefault builds the component set of projects created before
// component records existed, and persists it so the next load replays it.
func (p *Project) loadDefault(ctx context.Context) error {
	hub := p.factory.IoTHub("")
	if err := p.persist(ctx, hub, "", nil); err != nil {
		return err
	}
	if err := p.addLoaded(ctx, hub); err != nil {
		return err
	}
	hubDeps := []component.Dependency{{Component: hub, Type: model.DependencyInput}}
	p.add(p.factory.IoTHubDevice(hubDeps))

	functionPath := p.opts.Settings.Get(model.ConfigFunctionPath)
	if functionPath == "" {
		return nil
	}
	functions := p.factory.AzureFunctions("", functionPath, hubDeps)
	if err := p.persist(ctx, functions, functionPath, hubDeps); err != nil {
		return err
	}
	return p.addLoaded(ctx, functions)
}

func (p *Project) persist(ctx context.Context, c component.Component, folder string, deps []component.Dependency) error {
	err := p.env.Configs.Append(ctx, &model.ComponentConfig{
		ID:           c.ID(),
		Folder:       folder,
		Type:         c.Type(),
		Dependencies: component.ToConfigs(deps),
	})
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("saving %s: %w", c.Name(), err)
	}
	return nil
}

// Compile builds the device code of every compilable component.
func (p *Project) Compile(ctx context.Context) (bool, error) {
	return p.runPhase(ctx, component.CanCompile,
		"Unable to compile the device code, please check output window for detail.",
		func(c component.Component) (bool, error) {
			return c.(component.Compilable).Compile(ctx)
		})
}

// Upload flashes the device code of every uploadable component.
func (p *Project) Upload(ctx context.Context) (bool, error) {
	return p.runPhase(ctx, component.CanUpload,
		"Unable to upload the sketch, please check output window for detail.",
		func(c component.Component) (bool, error) {
			return c.(component.Uploadable).Upload(ctx)
		})
}

// runPhase calls run on every component with capability flag, in order.
// A failed prerequisite check stops the phase with false before the
// component runs; a false result from run is a fault.
func (p *Project) runPhase(ctx context.Context, flag component.Capabilities, failure string, run func(component.Component) (bool, error)) (bool, error) {
	if !p.loaded {
		return false, ErrNotLoaded
	}
	for _, e := range p.entries {
		if !e.caps.Has(flag) {
			continue
		}
		ok, err := e.component.CheckPrerequisites(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		ok, err = run(e.component)
		if err != nil {
			return false, fmt.Errorf("%s: %w", e.component.Name(), err)
		}
		if !ok {
			return false, &PhaseError{Component: e.component.Name(), Message: failure}
		}
	}
	return true, nil
}

// collect returns the components with capability flag after checking
// their prerequisites. It returns false as soon as a check fails.
func (p *Project) collect(ctx context.Context, flag component.Capabilities) ([]component.Component, bool, error) {
	var list []component.Component
	for _, e := range p.entries {
		if !e.caps.Has(flag) {
			continue
		}
		ok, err := e.component.CheckPrerequisites(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		list = append(list, e.component)
	}
	return list, true, nil
}

func names(list []component.Component) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name()
	}
	return out
}

// Provision creates the cloud resources of the project. Every step is
// confirmed first. A component returning false stops the phase with a
// warning; components provisioned before it stay provisioned.
func (p *Project) Provision(ctx context.Context) (bool, error) {
	if !p.loaded {
		return false, ErrNotLoaded
	}
	list, ok, err := p.collect(ctx, component.CanProvision)
	if err != nil || !ok {
		return false, err
	}
	if len(list) == 0 {
		p.opts.Notifier.Info(ctx, "Congratulations! There is no Azure service to provision in this project.")
		return false, nil
	}

	if ok, err := p.ensureSignedIn(ctx); err != nil || !ok {
		return false, err
	}
	target, ok, err := p.selectTarget(ctx)
	if err != nil || !ok {
		return false, err
	}

	steps := names(list)
	for i, c := range list {
		ok, err := confirmStep(ctx, p.opts.Prompter, "Provision process", steps, i)
		if err != nil || !ok {
			return false, err
		}
		p.logger.Info().Str("component", c.Name()).Str("resource_group", target.ResourceGroup).Msg("Provisioning")
		ok, err = c.(component.Provisionable).Provision(ctx, target)
		if err != nil {
			return false, fmt.Errorf("provisioning %s: %w", c.Name(), err)
		}
		if !ok {
			p.opts.Notifier.Warn(ctx, "Provision canceled.")
			return false, nil
		}
	}
	return true, nil
}

// Deploy pushes code and configuration to the provisioned resources.
// Unlike Provision, a component returning false is a fault.
func (p *Project) Deploy(ctx context.Context) (bool, error) {
	if !p.loaded {
		return false, ErrNotLoaded
	}
	list, ok, err := p.collect(ctx, component.CanDeploy)
	if err != nil || !ok {
		return false, err
	}
	if len(list) == 0 {
		p.opts.Notifier.Info(ctx, "The project does not contain any Azure components to be deployed.")
		return false, nil
	}

	if ok, err := p.ensureSignedIn(ctx); err != nil || !ok {
		return false, err
	}

	steps := names(list)
	for i, c := range list {
		ok, err := confirmStep(ctx, p.opts.Prompter, "Deploy process", steps, i)
		if err != nil || !ok {
			return false, err
		}
		p.logger.Info().Str("component", c.Name()).Msg("Deploying")
		ok, err = c.(component.Deployable).Deploy(ctx)
		if err != nil {
			return false, fmt.Errorf("deploying %s: %w", c.Name(), err)
		}
		if !ok {
			return false, &PhaseError{Component: c.Name(), Message: fmt.Sprintf("The deployment of %s failed.", c.Name())}
		}
	}

	p.opts.Notifier.Info(ctx, "Azure deploy succeeded.")
	return true, nil
}

// ConfigDeviceSettings lets every device store its connection settings.
func (p *Project) ConfigDeviceSettings(ctx context.Context) (bool, error) {
	if !p.loaded {
		return false, ErrNotLoaded
	}
	found := false
	for _, e := range p.entries {
		d, ok := e.component.(component.Device)
		if !ok {
			continue
		}
		found = true
		ok, err := d.ConfigDeviceSettings(ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	if !found {
		p.opts.Notifier.Warn(ctx, "The project has no device to configure.")
		return false, nil
	}
	return true, nil
}

// HandleLoadFailure explains a false Load. When the first folder holds a
// project whose descriptor was not opened, the descriptor is named.
func (p *Project) HandleLoadFailure() *LoadFailure {
	if len(p.opts.Folders) == 0 {
		return &LoadFailure{}
	}
	root := p.opts.Folders[0]
	marker := filepath.Join(root, model.DeviceFolderName, model.ProjectMarkerFileName)
	if _, err := os.Stat(marker); err != nil {
		return &LoadFailure{Root: root}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return &LoadFailure{Root: root}
	}
	for _, e := range entries {
		if !e.IsDir() && model.IsWorkspaceFile(e.Name()) {
			return &LoadFailure{Root: root, WorkspaceFile: filepath.Join(root, e.Name())}
		}
	}
	return &LoadFailure{Root: root}
}
