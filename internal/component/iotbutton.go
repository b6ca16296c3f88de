package component

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lazyvibe/iotwb/internal/prompt"
)

// DefaultIoTButtonEndpoint is the setup address of a button in access
// point mode.
const DefaultIoTButtonEndpoint = "http://192.168.4.1"

// IoTButtonDevice is a button configured over its Wi-Fi setup page. It has
// no code to build.
type IoTButtonDevice struct {
	deviceBase
	// Endpoint is the setup address of the button.
	Endpoint string
	// Client sends the settings; nil uses a client with a short timeout.
	Client *http.Client
}

func (d *IoTButtonDevice) CheckPrerequisites(_ context.Context) (bool, error) {
	return true, nil
}

func (d *IoTButtonDevice) Create(_ context.Context) (bool, error) {
	if err := d.createFolder(); err != nil {
		return false, err
	}
	return true, nil
}

func (d *IoTButtonDevice) Compile(ctx context.Context) (bool, error) {
	d.env.Notifier.Info(ctx, "Congratulations! There is no device code to compile in this project.")
	return true, nil
}

func (d *IoTButtonDevice) Upload(ctx context.Context) (bool, error) {
	d.env.Notifier.Info(ctx, "Congratulations! There is no device code to upload in this project.")
	return true, nil
}

// ConfigDeviceSettings sends Wi-Fi credentials and the device connection
// string to the button.
func (d *IoTButtonDevice) ConfigDeviceSettings(ctx context.Context) (bool, error) {
	cs := d.deviceConnectionString(ctx)
	if cs == "" {
		return false, nil
	}
	ssid, ok, err := d.env.Prompter.Input(ctx, prompt.InputOptions{
		Title:       "Enter Wi-Fi SSID",
		Placeholder: "SSID",
		Validate:    required("SSID"),
	})
	if err != nil || !ok {
		return false, err
	}
	password, ok, err := d.env.Prompter.Input(ctx, prompt.InputOptions{
		Title:       "Enter Wi-Fi password",
		Placeholder: "Password",
		Password:    true,
	})
	if err != nil || !ok {
		return false, err
	}

	form := url.Values{}
	form.Set("ssid", ssid)
	form.Set("password", password)
	form.Set("iothub", cs)

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	endpoint := strings.TrimSuffix(d.Endpoint, "/") + "/settings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	d.env.Logger.Info().Str("endpoint", endpoint).Msg("Sending settings to IoT button")
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("connecting to IoT button at %s: %w", d.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("IoT button rejected the settings: %s", resp.Status)
	}

	d.env.Notifier.Info(ctx, "Settings have been sent to the IoT button. Press the button to leave setup mode.")
	return true, nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}
