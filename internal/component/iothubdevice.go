package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/prompt"
)

// ErrNoHubConnectionString is returned when a device identity is
// provisioned before its IoT Hub.
var ErrNoHubConnectionString = errors.New("no IoT Hub connection string found")

// IoTHubDevice is the identity the device uses to connect to its IoT Hub.
// It is never persisted; load adds one next to every IoT Hub.
type IoTHubDevice struct {
	cloudBase
}

// NewIoTHubDevice returns a device identity component. deps normally holds
// the IoT Hub as Input.
func NewIoTHubDevice(env Env, deps []Dependency) *IoTHubDevice {
	return &IoTHubDevice{cloudBase: newCloudBase(env, model.ComponentIoTHubDevice, "", "IoT Hub Device", deps)}
}

// hubConnectionString is resolved at provisioning time so a hub
// provisioned earlier in the same pass is seen.
func (d *IoTHubDevice) hubConnectionString() string {
	if hub, ok := d.dependency(model.DependencyInput).(ConnectionStringProvider); ok {
		if cs := hub.ConnectionString(); cs != "" {
			return cs
		}
	}
	return d.env.Settings.Get(model.ConfigIoTHubConnectionString)
}

// Provision selects or creates a device identity and stores its connection
// string in the settings store.
func (d *IoTHubDevice) Provision(ctx context.Context, _ cloud.Target) (bool, error) {
	hubCS := d.hubConnectionString()
	if hubCS == "" {
		return false, ErrNoHubConnectionString
	}

	devices, err := d.env.Toolkit.Devices(ctx, hubCS)
	if err != nil {
		return false, err
	}
	var items []prompt.Item
	if len(devices) > 0 {
		items = append(items, prompt.Item{
			Label:       "Select an existing IoT Hub device",
			Description: "Select an existing IoT Hub device",
			Value:       "select",
		})
	}
	items = append(items, prompt.Item{
		Label:       "Create a new IoT Hub device",
		Description: "Create a new IoT Hub device",
		Value:       "create",
	})

	choice, err := d.env.Prompter.Pick(ctx, prompt.PickOptions{Placeholder: "Provision IoTHub Device"}, items)
	if err != nil || choice == nil {
		return false, err
	}

	var deviceID string
	switch choice.Value {
	case "select":
		list := make([]prompt.Item, 0, len(devices))
		for _, dev := range devices {
			list = append(list, prompt.Item{Label: dev.DeviceID})
		}
		picked, err := d.env.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select IoT Hub device"}, list)
		if err != nil || picked == nil {
			return false, err
		}
		deviceID = picked.Label
	default:
		id, ok, err := askName(ctx, d.env.Prompter, "Enter IoT Hub device ID", "", deviceIDRule)
		if err != nil || !ok {
			return false, err
		}
		dev, err := d.env.Toolkit.CreateDevice(ctx, hubCS, id)
		if err != nil {
			return false, err
		}
		deviceID = dev.DeviceID
	}

	cs, err := d.env.Toolkit.DeviceConnectionString(ctx, hubCS, deviceID)
	if err != nil {
		return false, err
	}
	if err := d.env.Settings.Update(model.ConfigIoTHubDeviceConnectionString, cs); err != nil {
		return false, fmt.Errorf("saving device connection string: %w", err)
	}

	d.env.Logger.Info().Str("device", deviceID).Msg("IoT Hub device provisioned")
	return true, nil
}
