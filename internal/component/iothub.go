package component

import (
	"context"
	"fmt"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/prompt"
)

// Keys recorded by IoTHub.
const (
	InfoIoTHubName             = "iotHubName"
	InfoIoTHubConnectionString = "iotHubConnectionString"
)

const iotHubSKU = "S1"

// IoTHub is an Azure IoT Hub the device sends telemetry to.
type IoTHub struct {
	cloudBase
}

// NewIoTHub returns an IoT Hub component. An empty id gets a new uuid.
func NewIoTHub(env Env, id string) *IoTHub {
	return &IoTHub{cloudBase: newCloudBase(env, model.ComponentIoTHub, id, "IoT Hub", nil)}
}

// ConnectionString returns the hub connection string recorded at
// provisioning, falling back to the settings store.
func (h *IoTHub) ConnectionString() string {
	if cs := h.info[InfoIoTHubConnectionString]; cs != "" {
		return cs
	}
	return h.env.Settings.Get(model.ConfigIoTHubConnectionString)
}

func (h *IoTHub) Load(ctx context.Context) (bool, error) {
	return h.loadInfo(ctx)
}

func (h *IoTHub) Create(ctx context.Context) (bool, error) {
	if err := h.appendRecord(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Provision selects an existing hub in the target resource group or
// creates a new one.
func (h *IoTHub) Provision(ctx context.Context, target cloud.Target) (bool, error) {
	choice, err := h.env.Prompter.Pick(ctx, prompt.PickOptions{
		Title:       "IoT Hub",
		Placeholder: "Provision IoT Hub",
	}, []prompt.Item{
		{Label: "Select an existing IoT Hub", Description: "Use a hub in " + target.ResourceGroup, Value: "select"},
		{Label: "Create a new IoT Hub", Description: "SKU " + iotHubSKU, Value: "create"},
	})
	if err != nil || choice == nil {
		return false, err
	}

	var hubName string
	switch choice.Value {
	case "select":
		hubs, err := h.env.Toolkit.IoTHubs(ctx, target)
		if err != nil {
			return false, err
		}
		if len(hubs) == 0 {
			h.env.Notifier.Warn(ctx, fmt.Sprintf("No IoT Hub found in resource group %s.", target.ResourceGroup))
			return false, nil
		}
		items := make([]prompt.Item, 0, len(hubs))
		for _, hub := range hubs {
			items = append(items, prompt.Item{Label: hub.Name, Description: hub.Location})
		}
		picked, err := h.env.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select IoT Hub"}, items)
		if err != nil || picked == nil {
			return false, err
		}
		hubName = picked.Label
	default:
		name, ok, err := askName(ctx, h.env.Prompter, "Enter IoT Hub name", "", iotHubNameRule)
		if err != nil || !ok {
			return false, err
		}
		h.env.Logger.Info().Str("hub", name).Msg("Creating IoT Hub, this may take a few minutes")
		hub, err := h.env.Toolkit.CreateIoTHub(ctx, target, name, iotHubSKU)
		if err != nil {
			return false, err
		}
		hubName = hub.Name
	}

	cs, err := h.env.Toolkit.IoTHubConnectionString(ctx, target, hubName)
	if err != nil {
		return false, err
	}
	if err := h.env.Settings.Update(model.ConfigIoTHubConnectionString, cs); err != nil {
		return false, fmt.Errorf("saving IoT Hub connection string: %w", err)
	}
	if err := h.saveTarget(ctx, target, map[string]string{
		InfoIoTHubName:             hubName,
		InfoIoTHubConnectionString: cs,
	}); err != nil {
		return false, err
	}

	h.env.Logger.Info().Str("hub", hubName).Msg("IoT Hub provisioned")
	return true, nil
}
