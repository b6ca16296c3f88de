// iotwb - IoT Workbench project orchestrator
// Scaffolds, builds, uploads, provisions and deploys IoT device projects
// backed by Azure services.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/ternarybob/arbor"

	"github.com/lazyvibe/iotwb/internal/app"
	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/notify"
	"github.com/lazyvibe/iotwb/internal/operator"
	"github.com/lazyvibe/iotwb/internal/project"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/internal/runtime"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
	"github.com/lazyvibe/iotwb/internal/store"
	"github.com/lazyvibe/iotwb/pkg/utils"
)

const (
	appName    = "iotwb"
	appVersion = "0.1.0"
)

// flags shared by every command.
type globalFlags struct {
	workspace string
	configDir string
	toolEnv   string
	yes       bool
}

// flags of the create and install-toolchain commands.
type createFlags struct {
	root      string
	board     string
	template  string
	newWindow bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return 0
	}
	if args[0] == "version" || args[0] == "--version" {
		fmt.Printf("%s %s\n", appName, appVersion)
		return 0
	}

	command := args[0]
	if !knownCommand(command) {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		printUsage()
		return 2
	}

	var global globalFlags
	var create createFlags
	flagSet := pflag.NewFlagSet(appName+" "+command, pflag.ContinueOnError)
	flagSet.StringVarP(&global.workspace, "workspace", "w", "", "workspace descriptor (*.code-workspace); found upward from the current folder by default")
	flagSet.StringVar(&global.configDir, "config-dir", "", "configuration folder (default $XDG_CONFIG_HOME/iotwb)")
	flagSet.BoolVarP(&global.yes, "yes", "y", false, "confirm every provision and deploy step")
	flagSet.StringVar(&global.toolEnv, "tool-env", "", "extra tool environment, e.g. \"ARDUINO_DATA=/data,AZURE_CORE_OUTPUT=json\"")
	switch command {
	case "create":
		flagSet.StringVar(&create.root, "root", "", "folder of the new project")
		flagSet.StringVar(&create.board, "board", "", "board id: "+strings.Join(board.Default().IDs(), ", "))
		flagSet.StringVar(&create.template, "template", "", "template: Basic, IotHub, AzureFunctions or StreamAnalytics")
		flagSet.BoolVar(&create.newWindow, "new-window", false, "open the project in a new editor window")
	case "install-toolchain":
		flagSet.StringVar(&create.board, "board", "", "board id; defaults to the board of the open project")
	}
	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Get config directory
	configDir := global.configDir
	if configDir == "" {
		dir, err := app.ConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting config directory: %v\n", err)
			return 1
		}
		configDir = dir
	}

	// Load application configuration
	config, err := app.LoadConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if config.FillToolPaths() {
		if err := app.SaveConfig(configDir, config); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to save config: %v\n", err)
		}
	}

	logger := app.NewLogger(config)

	toolEnv, err := utils.ParseEnvVars(global.toolEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: --tool-env: %v\n", err)
		return 2
	}
	toolEnv = utils.MergeEnvVars(config.ToolEnv, toolEnv)
	if len(toolEnv) > 0 {
		logger.Debug().Str("env", utils.FormatEnvVars(toolEnv)).Msg("Tool environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	drivers := driver.NewRegistry(driver.Config{
		ArduinoCLIPath: config.ArduinoCLIPath,
		AzPath:         config.AzPath,
		FuncPath:       config.FuncPath,
		EditorCommand:  config.EditorCommand,
		Env:            toolEnv,
	})
	runner := runtime.NewPTYRunner(logger)
	defer func() {
		if err := runner.CloseAll(); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop tool sessions")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = runner.CloseAll()
	}()

	var prompter prompt.Prompter = prompt.NewTUI(os.Stdin, os.Stdout)
	if global.yes {
		prompter = prompt.NewAutoConfirm(prompter)
	}

	opts, settings, err := projectOptions(global, configDir, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open workspace")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	opts.Prompter = prompter
	opts.Runner = runner
	opts.Drivers = drivers
	opts.Toolkit = cloud.NewAzCLI(runner, drivers, logger)
	opts.Notifier = notify.NewDispatcher(notify.Config{
		Desktop:      config.DesktopNotifications,
		TelemetryURL: config.TelemetryURL,
	}, logger, uuid.NewString())
	opts.Opener = operator.NewEditorOpener(drivers, logger)
	opts.Logger = logger

	showHelpOnce(settings, logger)

	var ok bool
	switch command {
	case "create":
		var root string
		initializer := operator.NewProjectInitializer(opts, board.Default(), config.RecentPaths)
		root, ok, err = initializer.Initialize(ctx, operator.Request{
			Root:      create.root,
			Board:     create.board,
			Template:  model.TemplateType(create.template),
			NewWindow: create.newWindow,
		})
		if ok && err == nil {
			config.AddRecentPath(root)
			if err := app.SaveConfig(configDir, config); err != nil {
				logger.Warn().Err(err).Msg("Failed to save recent paths")
			}
		}
	case "compile":
		ok, err = operator.NewDeviceOperator(opts, board.Default()).Compile(ctx)
	case "upload":
		ok, err = operator.NewDeviceOperator(opts, board.Default()).Upload(ctx)
	case "configure-device":
		ok, err = operator.NewDeviceOperator(opts, board.Default()).ConfigDeviceSettings(ctx)
	case "install-toolchain":
		ok, err = operator.NewDeviceOperator(opts, board.Default()).DownloadPackage(ctx, create.board)
	case "provision":
		ok, err = operator.NewAzureOperator(opts).Provision(ctx)
	case "deploy":
		ok, err = operator.NewAzureOperator(opts).Deploy(ctx)
	}

	if err != nil {
		logger.Error().Str("command", command).Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !ok {
		logger.Info().Str("command", command).Msg("Command stopped before completion")
	}
	return 0
}

var commands = []struct {
	name  string
	usage string
}{
	{"create", "create a new project from a board and template"},
	{"compile", "compile the device code"},
	{"upload", "upload the device code to the board"},
	{"configure-device", "store the device connection settings"},
	{"install-toolchain", "install the board package with arduino-cli"},
	{"provision", "create the Azure resources of the project"},
	{"deploy", "deploy code to the provisioned Azure resources"},
}

func knownCommand(name string) bool {
	for _, c := range commands {
		if c.name == name {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\nCommands:\n", appName)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> --help' for the flags of a command.\n", appName)
}

// projectOptions locates the workspace and builds the layered settings.
// Without a workspace the current folder is the only folder, so a failed
// load can point at it.
func projectOptions(global globalFlags, configDir string, logger arbor.ILogger) (project.Options, *store.Layered, error) {
	globalSettings, err := store.NewGlobalSettings(configDir)
	if err != nil {
		return project.Options{}, nil, err
	}
	settings := &store.Layered{Global: globalSettings}

	cwd, err := os.Getwd()
	if err != nil {
		return project.Options{}, nil, err
	}
	workspaceFile := global.workspace
	if workspaceFile == "" {
		workspaceFile = findWorkspace(cwd)
	}
	if workspaceFile == "" {
		return project.Options{Folders: []string{cwd}, Settings: settings}, settings, nil
	}

	workspaceFile, err = filepath.Abs(workspaceFile)
	if err != nil {
		return project.Options{}, nil, err
	}
	ws, err := store.NewWorkspaceSettings(workspaceFile)
	if err != nil {
		return project.Options{}, nil, fmt.Errorf("reading %s: %w", workspaceFile, err)
	}
	settings.Workspace = ws
	logger.Debug().Str("workspace", workspaceFile).Msg("Using workspace")
	return project.Options{
		Folders:  ws.Workspace().FolderPaths(workspaceFile),
		Settings: settings,
	}, settings, nil
}

// findWorkspace returns the first workspace descriptor found in dir or one
// of its parents.
func findWorkspace(dir string) string {
	for {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() && model.IsWorkspaceFile(e.Name()) {
					return filepath.Join(dir, e.Name())
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// showHelpOnce prints the getting started notes on the first run.
func showHelpOnce(settings *store.Layered, logger arbor.ILogger) {
	if settings.GetBool(model.ConfigShownHelpPage) {
		return
	}
	fmt.Fprintf(os.Stderr, `Welcome to IoT Workbench.

  1. %[1]s install-toolchain   install the package of your board
  2. %[1]s create              scaffold a project
  3. %[1]s provision           create the Azure resources
  4. %[1]s deploy              push the cloud code
  5. %[1]s upload              flash the device

`, appName)
	if err := settings.UpdateGlobal(model.ConfigShownHelpPage, true); err != nil {
		logger.Warn().Err(err).Msg("Failed to record shown help page")
	}
}
