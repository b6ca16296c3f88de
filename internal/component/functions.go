package component

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
)

// InfoFunctionAppName is the key recorded by AzureFunctions.
const InfoFunctionAppName = "functionAppName"

const functionName = "IoTHubTrigger"

// AzureFunctions is a Function App processing messages of its Input hub.
type AzureFunctions struct {
	cloudBase
	path string
}

// NewAzureFunctions returns a Function App component whose code lives in
// folder, relative to the project root.
func NewAzureFunctions(env Env, id, folder string, deps []Dependency) *AzureFunctions {
	f := &AzureFunctions{cloudBase: newCloudBase(env, model.ComponentAzureFunctions, id, "Azure Functions", deps)}
	f.folder = folder
	f.path = filepath.Join(env.Root, folder)
	return f
}

// Path returns the absolute function folder.
func (f *AzureFunctions) Path() string { return f.path }

func (f *AzureFunctions) Load(ctx context.Context) (bool, error) {
	return f.loadInfo(ctx)
}

// Create scaffolds a JavaScript IoT Hub triggered function whose binding
// reads the hub connection string from an app setting named after the
// Input dependency.
func (f *AzureFunctions) Create(ctx context.Context) (bool, error) {
	hub := f.dependency(model.DependencyInput)
	if hub == nil {
		return false, fmt.Errorf("%s: %w: Input", f.name, ErrMissingDependency)
	}
	data := struct{ Connection string }{Connection: ResourceRef(hub)}

	files := []struct {
		template string
		target   string
		render   bool
	}{
		{"functions/host.json", "host.json", false},
		{"functions/local.settings.json", "local.settings.json", true},
		{"functions/function.json", filepath.Join(functionName, "function.json"), true},
		{"functions/index.js", filepath.Join(functionName, "index.js"), false},
	}
	for _, file := range files {
		var content []byte
		var err error
		if file.render {
			content, err = renderTemplate(file.template, data)
		} else {
			content, err = readTemplate(file.template)
		}
		if err != nil {
			return false, err
		}
		if err := writeFile(filepath.Join(f.path, file.target), content); err != nil {
			return false, fmt.Errorf("creating %s: %w", f.name, err)
		}
	}

	if err := f.appendRecord(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Provision creates the Function App and hands it the hub connection
// string.
func (f *AzureFunctions) Provision(ctx context.Context, target cloud.Target) (bool, error) {
	name, ok, err := askName(ctx, f.env.Prompter, "Enter Function App name", f.info[InfoFunctionAppName], functionAppNameRule)
	if err != nil || !ok {
		return false, err
	}

	f.env.Logger.Info().Str("app", name).Msg("Creating Function App")
	if err := f.env.Toolkit.CreateFunctionApp(ctx, target, name); err != nil {
		return false, err
	}

	if hub := f.dependency(model.DependencyInput); hub != nil {
		if p, ok := hub.(ConnectionStringProvider); ok && p.ConnectionString() != "" {
			settings := map[string]string{ResourceRef(hub): p.ConnectionString()}
			if err := f.env.Toolkit.SetFunctionAppSettings(ctx, target, name, settings); err != nil {
				return false, err
			}
		}
	}

	if err := f.saveTarget(ctx, target, map[string]string{InfoFunctionAppName: name}); err != nil {
		return false, err
	}
	return true, nil
}

// Deploy publishes the function folder. It returns false when the Function
// App has not been provisioned.
func (f *AzureFunctions) Deploy(ctx context.Context) (bool, error) {
	name := f.info[InfoFunctionAppName]
	if name == "" {
		f.env.Notifier.Warn(ctx, "Azure Functions has not been provisioned. Run \"iotwb provision\" first.")
		return false, nil
	}
	if err := f.env.Toolkit.PublishFunctionApp(ctx, f.path, name); err != nil {
		return false, err
	}
	return true, nil
}
