package operator

import (
	"context"
	"fmt"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/component"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/project"
	"github.com/lazyvibe/iotwb/internal/prompt"
)

// DeviceOperator runs the device phases of a project.
type DeviceOperator struct {
	opts    project.Options
	catalog *board.Catalog
}

// NewDeviceOperator creates a DeviceOperator. Boards are looked up in
// catalog.
func NewDeviceOperator(opts project.Options, catalog *board.Catalog) *DeviceOperator {
	return &DeviceOperator{opts: opts, catalog: catalog}
}

// Compile builds the device code.
func (o *DeviceOperator) Compile(ctx context.Context) (bool, error) {
	return CallWithTelemetry(ctx, o.opts.Notifier, EventDeviceCompile, func(ctx context.Context) (bool, error) {
		p, err := load(ctx, o.opts)
		if err != nil {
			return false, err
		}
		return p.Compile(ctx)
	})
}

// Upload flashes the device code to the board.
func (o *DeviceOperator) Upload(ctx context.Context) (bool, error) {
	return CallWithTelemetry(ctx, o.opts.Notifier, EventDeviceUpload, func(ctx context.Context) (bool, error) {
		p, err := load(ctx, o.opts)
		if err != nil {
			return false, err
		}
		return p.Upload(ctx)
	})
}

// ConfigDeviceSettings stores the device connection settings.
func (o *DeviceOperator) ConfigDeviceSettings(ctx context.Context) (bool, error) {
	return CallWithTelemetry(ctx, o.opts.Notifier, EventConfigureDevice, func(ctx context.Context) (bool, error) {
		p, err := load(ctx, o.opts)
		if err != nil {
			return false, err
		}
		return p.ConfigDeviceSettings(ctx)
	})
}

// DownloadPackage installs the board package of boardID. Without a board
// id the board of the open project is used, and failing that the user
// picks one.
func (o *DeviceOperator) DownloadPackage(ctx context.Context, boardID string) (bool, error) {
	return CallWithTelemetry(ctx, o.opts.Notifier, EventInstallToolchain, func(ctx context.Context) (bool, error) {
		if boardID == "" && o.opts.Settings != nil {
			boardID = o.opts.Settings.Get(model.ConfigBoardID)
		}
		b, ok, err := o.selectBoard(ctx, boardID)
		if err != nil || !ok {
			return false, err
		}
		if b.Installation == nil {
			o.opts.Notifier.Info(ctx, fmt.Sprintf("%s does not need a device package.", b.Name))
			return true, nil
		}

		env := component.Env{
			Settings: o.opts.Settings,
			Prompter: o.opts.Prompter,
			Runner:   o.opts.Runner,
			Drivers:  o.opts.Drivers,
			Notifier: o.opts.Notifier,
			Logger:   o.opts.Logger,
		}
		if err := component.InstallBoardPackage(ctx, env, b); err != nil {
			return false, err
		}
		o.opts.Notifier.Info(ctx, fmt.Sprintf("Device package for %s has been installed.", b.Name))
		return true, nil
	})
}

func (o *DeviceOperator) selectBoard(ctx context.Context, boardID string) (*board.Board, bool, error) {
	if boardID != "" {
		b, ok := o.catalog.Find(boardID)
		if !ok {
			return nil, false, fmt.Errorf("board %q: %w", boardID, project.ErrUnsupportedBoard)
		}
		return b, true, nil
	}

	var items []prompt.Item
	for _, b := range o.catalog.Boards {
		if b.Installation == nil {
			continue
		}
		items = append(items, prompt.Item{Label: b.Name, Description: b.DetailInfo, Value: b.ID})
	}
	picked, err := o.opts.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select a board"}, items)
	if err != nil || picked == nil {
		return nil, false, err
	}
	b, _ := o.catalog.Find(picked.Value)
	return b, true, nil
}
