package operator

import (
	"context"

	"github.com/lazyvibe/iotwb/internal/project"
)

// AzureOperator runs the cloud phases of a project.
type AzureOperator struct {
	opts project.Options
}

// NewAzureOperator creates an AzureOperator for the workspace in opts.
func NewAzureOperator(opts project.Options) *AzureOperator {
	return &AzureOperator{opts: opts}
}

// Provision creates the Azure resources of the project.
func (o *AzureOperator) Provision(ctx context.Context) (bool, error) {
	return CallWithTelemetry(ctx, o.opts.Notifier, EventAzureProvision, func(ctx context.Context) (bool, error) {
		p, err := load(ctx, o.opts)
		if err != nil {
			return false, err
		}
		ok, err := p.Provision(ctx)
		if err != nil || !ok {
			return false, err
		}
		o.opts.Notifier.Info(ctx, "Azure provision succeeded.")
		return true, nil
	})
}

// Deploy pushes the project code to the provisioned resources.
func (o *AzureOperator) Deploy(ctx context.Context) (bool, error) {
	return CallWithTelemetry(ctx, o.opts.Notifier, EventAzureDeploy, func(ctx context.Context) (bool, error) {
		p, err := load(ctx, o.opts)
		if err != nil {
			return false, err
		}
		return p.Deploy(ctx)
	})
}
