package component

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/model"
)

// ErrUnsupportedBoard is returned for a board no device variant handles.
var ErrUnsupportedBoard = errors.New("the specified board is not supported")

// NewDevice returns the device variant for b. folder is relative to the
// project root and sketch names the device code template.
func NewDevice(env Env, b *board.Board, folder, sketch string) (Device, error) {
	base := newDeviceBase(env, b, folder, sketch)
	switch b.Kind {
	case board.KindArduino:
		return &ArduinoDevice{deviceBase: base}, nil
	case board.KindIoTButton:
		return &IoTButtonDevice{deviceBase: base, Endpoint: DefaultIoTButtonEndpoint}, nil
	case board.KindRaspberryPi:
		return &RaspberryPiDevice{deviceBase: base}, nil
	}
	return nil, fmt.Errorf("board %s: %w", b.ID, ErrUnsupportedBoard)
}

// deviceBase holds what every board variant shares.
type deviceBase struct {
	id     string
	board  *board.Board
	path   string
	sketch string
	env    Env
}

func newDeviceBase(env Env, b *board.Board, folder, sketch string) deviceBase {
	return deviceBase{
		id:     uuid.NewString(),
		board:  b,
		path:   filepath.Join(env.Root, folder),
		sketch: sketch,
		env:    env,
	}
}

func (d *deviceBase) ID() string                { return d.id }
func (d *deviceBase) Name() string              { return d.board.Name }
func (d *deviceBase) Type() model.ComponentType { return model.ComponentDevice }
func (d *deviceBase) Board() string             { return d.board.ID }

// Path returns the absolute device folder.
func (d *deviceBase) Path() string { return d.path }

// Load reports whether the device folder holds a project marker.
func (d *deviceBase) Load(_ context.Context) (bool, error) {
	_, err := os.Stat(filepath.Join(d.path, model.ProjectMarkerFileName))
	if errors.Is(err, os.ErrNotExist) {
		d.env.Logger.Warn().Str("path", d.path).Msg("Device folder has no project marker")
		return false, nil
	}
	return err == nil, err
}

// createFolder creates the device folder and its project marker.
func (d *deviceBase) createFolder() error {
	if err := writeFile(filepath.Join(d.path, model.ProjectMarkerFileName), nil); err != nil {
		return fmt.Errorf("creating device folder: %w", err)
	}
	return nil
}

// deviceConnectionString returns the provisioned device connection
// string, warning when there is none.
func (d *deviceBase) deviceConnectionString(ctx context.Context) string {
	cs := d.env.Settings.Get(model.ConfigIoTHubDeviceConnectionString)
	if cs == "" {
		d.env.Notifier.Warn(ctx, "No IoT Hub device connection string found. Run \"iotwb provision\" first.")
	}
	return cs
}
