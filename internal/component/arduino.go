package component

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/lazyvibe/iotwb/internal/board"
	"github.com/lazyvibe/iotwb/internal/model"
	"github.com/lazyvibe/iotwb/internal/prompt"
	"github.com/lazyvibe/iotwb/internal/runtime"
	"github.com/lazyvibe/iotwb/internal/runtime/driver"
)

// IoTConfigsFileName is the header the device connection string is
// written to.
const IoTConfigsFileName = "iot_configs.h"

// ArduinoDevice is a board built and flashed with arduino-cli.
type ArduinoDevice struct {
	deviceBase
}

// sketchFile is named after the folder, as arduino-cli requires.
func (d *ArduinoDevice) sketchFile() string {
	return filepath.Join(d.path, filepath.Base(d.path)+".ino")
}

// CheckPrerequisites verifies that arduino-cli resolves and the board core
// is installed.
func (d *ArduinoDevice) CheckPrerequisites(ctx context.Context) (bool, error) {
	if !d.env.Drivers.Available(driver.ToolArduinoCLI) {
		d.env.Notifier.Warn(ctx, "arduino-cli was not found. Install it or set arduinoCliPath in the iotwb config.")
		return false, nil
	}
	cores, err := installedCores(ctx, d.env)
	if err != nil {
		return false, err
	}
	core := d.board.Installation.Core()
	for _, c := range cores {
		if strings.EqualFold(c, core) {
			return true, nil
		}
	}
	d.env.Notifier.Warn(ctx, fmt.Sprintf("The device package %s is not installed. Run \"iotwb install-toolchain\" first.", core))
	return false, nil
}

func (d *ArduinoDevice) Create(_ context.Context) (bool, error) {
	if err := d.createFolder(); err != nil {
		return false, err
	}
	sketch, err := readTemplate(path.Join("arduino", d.sketch+".ino"))
	if err != nil {
		return false, err
	}
	if err := writeFile(d.sketchFile(), sketch); err != nil {
		return false, err
	}

	descriptor, err := json.MarshalIndent(arduinoDescriptor{
		Board:  d.board.FQBN,
		Sketch: filepath.Base(d.sketchFile()),
	}, "", "    ")
	if err != nil {
		return false, err
	}
	file := filepath.Join(d.path, model.ArduinoDescriptorFolder, model.ArduinoDescriptorFile)
	if err := writeFile(file, descriptor); err != nil {
		return false, err
	}
	return true, nil
}

func (d *ArduinoDevice) Compile(ctx context.Context) (bool, error) {
	cmd, err := d.env.Drivers.Command(driver.ToolArduinoCLI, d.path, "compile", "--fqbn", d.board.FQBN, d.path)
	if err != nil {
		return false, err
	}
	return d.run(ctx, cmd)
}

// Upload flashes the sketch to the serial port the user picks.
func (d *ArduinoDevice) Upload(ctx context.Context) (bool, error) {
	port, ok, err := d.selectPort(ctx)
	if err != nil || !ok {
		return false, err
	}
	cmd, err := d.env.Drivers.Command(driver.ToolArduinoCLI, d.path, "upload", "--port", port, "--fqbn", d.board.FQBN, d.path)
	if err != nil {
		return false, err
	}
	return d.run(ctx, cmd)
}

func (d *ArduinoDevice) run(ctx context.Context, cmd *exec.Cmd) (bool, error) {
	result, err := d.env.Runner.Stream(ctx, cmd)
	if err != nil {
		return false, err
	}
	if !result.Success() {
		d.env.Logger.Warn().Str("command", strings.Join(cmd.Args, " ")).Int("exit_code", result.ExitCode).Msg("arduino-cli failed")
		return false, nil
	}
	return true, nil
}

func (d *ArduinoDevice) selectPort(ctx context.Context) (string, bool, error) {
	cmd, err := d.env.Drivers.Command(driver.ToolArduinoCLI, d.path, "board", "list", "--format", "json")
	if err != nil {
		return "", false, err
	}
	out, err := d.env.Runner.Capture(ctx, cmd)
	if err != nil {
		return "", false, err
	}
	ports, err := parseBoardList(out, d.board.FQBN)
	if err != nil {
		return "", false, err
	}
	switch len(ports) {
	case 0:
		d.env.Notifier.Warn(ctx, "No serial port found. Connect the board and try again.")
		return "", false, nil
	case 1:
		return ports[0].Address, true, nil
	}

	items := make([]prompt.Item, 0, len(ports))
	for _, p := range ports {
		items = append(items, prompt.Item{Label: p.Address, Description: p.Board})
	}
	picked, err := d.env.Prompter.Pick(ctx, prompt.PickOptions{Title: "Select a serial port"}, items)
	if err != nil || picked == nil {
		return "", false, err
	}
	return picked.Label, true, nil
}

// ConfigDeviceSettings hands the device connection string to the sketch,
// through the clipboard or the iot_configs.h header.
func (d *ArduinoDevice) ConfigDeviceSettings(ctx context.Context) (bool, error) {
	cs := d.deviceConnectionString(ctx)
	if cs == "" {
		return false, nil
	}
	choice, err := d.env.Prompter.Pick(ctx, prompt.PickOptions{Title: "Configure device", Placeholder: "Select an option"}, []prompt.Item{
		{Label: "Copy device connection string", Description: "Paste it into the sketch yourself", Value: "copy"},
		{Label: "Write device connection string to " + IoTConfigsFileName, Description: d.path, Value: "header"},
	})
	if err != nil || choice == nil {
		return false, err
	}

	if choice.Value == "copy" {
		if err := clipboard.WriteAll(cs); err != nil {
			return false, fmt.Errorf("copying to clipboard: %w", err)
		}
		d.env.Notifier.Info(ctx, "Device connection string has been copied to the clipboard.")
		return true, nil
	}

	content, err := renderTemplate("arduino/"+IoTConfigsFileName, struct{ ConnectionString string }{cs})
	if err != nil {
		return false, err
	}
	if err := writeFile(filepath.Join(d.path, IoTConfigsFileName), content); err != nil {
		return false, err
	}
	d.env.Notifier.Info(ctx, "Device connection string has been written to "+IoTConfigsFileName+".")
	return true, nil
}

// arduinoDescriptor is the .vscode/arduino.json board descriptor.
type arduinoDescriptor struct {
	Board  string `json:"board"`
	Sketch string `json:"sketch"`
	Port   string `json:"port,omitempty"`
}

// installedCores lists the cores reported by "arduino-cli core list".
func installedCores(ctx context.Context, env Env) ([]string, error) {
	cmd, err := env.Drivers.Command(driver.ToolArduinoCLI, "", "core", "list", "--format", "json")
	if err != nil {
		return nil, err
	}
	out, err := env.Runner.Capture(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return parseCoreList(out)
}

type coreEntry struct {
	ID string `json:"id"`
}

// parseCoreList accepts both the object form of arduino-cli 1.x and the
// bare array of older releases.
func parseCoreList(data []byte) ([]string, error) {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, nil
	}
	var entries []coreEntry
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing core list: %w", err)
		}
	} else {
		var wrapped struct {
			Platforms []coreEntry `json:"platforms"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing core list: %w", err)
		}
		entries = wrapped.Platforms
	}
	cores := make([]string, 0, len(entries))
	for _, e := range entries {
		cores = append(cores, e.ID)
	}
	return cores, nil
}

// serialPort is one port reported by "arduino-cli board list".
type serialPort struct {
	Address string
	Board   string
	matches bool
}

type detectedPort struct {
	Port struct {
		Address  string `json:"address"`
		Protocol string `json:"protocol"`
	} `json:"port"`
	MatchingBoards []struct {
		Name string `json:"name"`
		FQBN string `json:"fqbn"`
	} `json:"matching_boards"`
}

// parseBoardList returns the serial ports, those matching fqbn first.
func parseBoardList(data []byte, fqbn string) ([]serialPort, error) {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, nil
	}
	var detected []detectedPort
	if data[0] == '[' {
		if err := json.Unmarshal(data, &detected); err != nil {
			return nil, fmt.Errorf("parsing board list: %w", err)
		}
	} else {
		var wrapped struct {
			DetectedPorts []detectedPort `json:"detected_ports"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing board list: %w", err)
		}
		detected = wrapped.DetectedPorts
	}

	var ports []serialPort
	for _, p := range detected {
		if p.Port.Address == "" || (p.Port.Protocol != "" && p.Port.Protocol != "serial") {
			continue
		}
		port := serialPort{Address: p.Port.Address}
		for _, b := range p.MatchingBoards {
			port.Board = b.Name
			if b.FQBN == fqbn {
				port.matches = true
				break
			}
		}
		ports = append(ports, port)
	}
	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].matches && !ports[j].matches
	})
	return ports, nil
}

// InstallBoardPackage installs the arduino-cli core of b.
func InstallBoardPackage(ctx context.Context, env Env, b *board.Board) error {
	if b.Installation == nil {
		return fmt.Errorf("%s does not need a device package", b.Name)
	}
	urlArgs := []string{}
	if b.Installation.AdditionalURL != "" {
		urlArgs = append(urlArgs, "--additional-urls", b.Installation.AdditionalURL)
	}

	steps := [][]string{
		append([]string{"core", "update-index"}, urlArgs...),
		append([]string{"core", "install", b.Installation.Core()}, urlArgs...),
	}
	for _, args := range steps {
		cmd, err := env.Drivers.Command(driver.ToolArduinoCLI, "", args...)
		if err != nil {
			return err
		}
		result, err := env.Runner.Stream(ctx, cmd)
		if err != nil {
			return err
		}
		if !result.Success() {
			return fmt.Errorf("arduino-cli %s exited with %d: %s",
				strings.Join(args[:2], " "), result.ExitCode, strings.Join(runtime.Tail(result.Screen, 3), " / "))
		}
	}
	return nil
}
