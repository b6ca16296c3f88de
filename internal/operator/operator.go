// Package operator maps iotwb commands to project phases. Every command
// builds and loads its own project and reports the outcome as a telemetry
// event.
package operator

import (
	"context"
	"strconv"
	"time"

	"github.com/lazyvibe/iotwb/internal/notify"
	"github.com/lazyvibe/iotwb/internal/project"
)

// Telemetry events sent per command.
const (
	EventAzureProvision    = "IoTWorkbench.AzureProvision"
	EventAzureDeploy       = "IoTWorkbench.AzureDeploy"
	EventDeviceCompile     = "IoTWorkbench.DeviceCompile"
	EventDeviceUpload      = "IoTWorkbench.DeviceUpload"
	EventConfigureDevice   = "IoTWorkbench.ConfigureDevice"
	EventInstallToolchain  = "IoTWorkbench.InstallToolchain"
	EventInitializeProject = "IoTWorkbench.InitializeProject"
)

// Command results reported to telemetry.
const (
	ResultSucceeded = "Succeeded"
	ResultFailed    = "Failed"
	ResultCanceled  = "Canceled"
)

// CallWithTelemetry runs fn and tracks event with its result and duration
// in milliseconds. The outcome of fn is returned unchanged.
func CallWithTelemetry(ctx context.Context, n notify.Notifier, event string, fn func(context.Context) (bool, error)) (bool, error) {
	start := time.Now()
	ok, err := fn(ctx)

	props := map[string]string{
		"duration": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
	}
	switch {
	case err != nil:
		props["result"] = ResultFailed
		props["error"] = err.Error()
	case ok:
		props["result"] = ResultSucceeded
	default:
		props["result"] = ResultCanceled
	}
	n.Track(ctx, event, props)
	return ok, err
}

// load builds a project from opts. A workspace that is not a project is
// reported as a *project.LoadFailure.
func load(ctx context.Context, opts project.Options) (*project.Project, error) {
	p := project.New(opts)
	ok, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.HandleLoadFailure()
	}
	return p, nil
}
