package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lazyvibe/iotwb/internal/component"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/store"
)

// NewProjectEvent is the telemetry event sent after a project is created.
const NewProjectEvent = "IoTWorkbench.NewProject"

// Create builds a new project in rootPath, which must exist. Any failure
// removes rootPath entirely. On success the workspace descriptor is written
// and handed to the opener.
func (p *Project) Create(ctx context.Context, rootPath string, tmpl *model.ProjectTemplate, boardID string, openInNewWindow bool) (ok bool, err error) {
	if tmpl == nil {
		return false, fmt.Errorf("creating project: %w", ErrUnsupportedTemplate)
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return false, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("project root %s is not a folder", rootPath)
	}

	defer func() {
		if ok && err == nil {
			return
		}
		if rmErr := os.RemoveAll(rootPath); rmErr != nil {
			p.logger.Warn().Str("root", rootPath).Err(rmErr).Msg("Failed to remove project folder")
		}
	}()

	p.setRoot(rootPath)
	if err := os.MkdirAll(filepath.Join(rootPath, model.DeviceFolderName), 0755); err != nil {
		return false, err
	}
	if err := p.env.Configs.CreateIfNotExists(ctx); err != nil {
		return false, err
	}

	ws := model.NewWorkspace()
	ws.AddFolder(model.DeviceFolderName)
	ws.Set(model.ConfigDevicePath, model.DeviceFolderName)
	ws.Set(model.ConfigBoardID, boardID)

	device, err := p.factory.Device(boardID, model.DeviceFolderName, tmpl.Sketch)
	if err != nil {
		return false, err
	}
	if ok, err := p.createComponent(ctx, device); err != nil || !ok {
		return false, err
	}

	switch tmpl.Type {
	case model.TemplateBasic:
	case model.TemplateIotHub:
		if ok, err := p.createComponent(ctx, p.factory.IoTHub("")); err != nil || !ok {
			return false, err
		}
	case model.TemplateAzureFunctions:
		hub := p.factory.IoTHub("")
		if ok, err := p.createComponent(ctx, hub); err != nil || !ok {
			return false, err
		}
		if err := os.MkdirAll(filepath.Join(rootPath, model.FunctionFolderName), 0755); err != nil {
			return false, err
		}
		functions := p.factory.AzureFunctions("", model.FunctionFolderName, []component.Dependency{
			{Component: hub, Type: model.DependencyInput},
		})
		if ok, err := p.createComponent(ctx, functions); err != nil || !ok {
			return false, err
		}
		ws.AddFolder(model.FunctionFolderName)
		ws.Set(model.ConfigFunctionPath, model.FunctionFolderName)
	case model.TemplateStreamAnalytics:
		hub := p.factory.IoTHub("")
		if ok, err := p.createComponent(ctx, hub); err != nil || !ok {
			return false, err
		}
		cosmos := p.factory.CosmosDB("", nil)
		if ok, err := p.createComponent(ctx, cosmos); err != nil || !ok {
			return false, err
		}
		job := p.factory.StreamAnalyticsJob("", []component.Dependency{
			{Component: hub, Type: model.DependencyInput},
			{Component: cosmos, Type: model.DependencyOther},
		})
		if ok, err := p.createComponent(ctx, job); err != nil || !ok {
			return false, err
		}
		ws.AddFolder(model.AsaFolderName)
		ws.Set(model.ConfigAsaPath, model.AsaFolderName)
	default:
		return false, fmt.Errorf("template type %q: %w", tmpl.Type, ErrUnsupportedTemplate)
	}

	workspaceFile := filepath.Join(rootPath, model.WorkspaceFileName(rootPath))
	if err := store.WriteWorkspace(workspaceFile, ws); err != nil {
		return false, fmt.Errorf("writing workspace: %w", err)
	}
	p.loaded = true
	p.logger.Info().Str("root", rootPath).Str("template", string(tmpl.Type)).Str("board", boardID).Msg("Project created")

	if !openInNewWindow {
		p.opts.Notifier.Track(ctx, NewProjectEvent, map[string]string{
			"template": string(tmpl.Type),
			"board":    boardID,
		})
	}
	if p.opts.Opener != nil {
		if err := p.opts.Opener.Open(ctx, workspaceFile, openInNewWindow); err != nil {
			p.logger.Warn().Str("workspace", workspaceFile).Err(err).Msg("Failed to open project")
		}
	}
	return true, nil
}

// createComponent appends c after its prerequisite check and creates it
// when it is Creatable.
func (p *Project) createComponent(ctx context.Context, c component.Component) (bool, error) {
	ok, err := c.CheckPrerequisites(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		p.logger.Warn().Str("component", c.Name()).Msg("Prerequisites not met")
		return false, nil
	}
	p.add(c)

	creatable, isCreatable := c.(component.Creatable)
	if !isCreatable {
		return true, nil
	}
	ok, err = creatable.Create(ctx)
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", c.Name(), err)
	}
	if !ok {
		p.opts.Notifier.Warn(ctx, "Project initialize canceled.")
		return false, nil
	}
	return true, nil
}

// ErrRootNotEmpty is returned by CheckRoot for a folder holding files.
// Create removes its root on failure, so it only runs in empty folders.
var ErrRootNotEmpty = errors.New("folder is not empty")

// CheckRoot rejects a root folder that already holds files. A missing
// folder passes.
func CheckRoot(rootPath string) error {
	entries, err := os.ReadDir(rootPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s: %w", rootPath, ErrRootNotEmpty)
	}
	return nil
}
