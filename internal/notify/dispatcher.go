// Package notify reports phase results to the user and sends telemetry
// events.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/ternarybob/arbor"
)

const appTitle = "IoT Workbench"

// Notifier shows messages and tracks events.
type Notifier interface {
	// Info reports a normal outcome.
	Info(ctx context.Context, message string)
	// Warn reports a soft abort.
	Warn(ctx context.Context, message string)
	// Error reports a fault.
	Error(ctx context.Context, message string)
	// Track sends a telemetry event. Failures are swallowed.
	Track(ctx context.Context, event string, properties map[string]string)
}

// Config selects the notification channels.
type Config struct {
	Desktop      bool
	TelemetryURL string
}

// Dispatcher logs every message, optionally mirrors it as a desktop
// notification and posts telemetry events to a webhook.
type Dispatcher struct {
	config  Config
	logger  arbor.ILogger
	client  *http.Client
	notify  func(title, message string) error
	session string
}

// NewDispatcher creates a Dispatcher with sensible defaults.
func NewDispatcher(config Config, logger arbor.ILogger, session string) *Dispatcher {
	return &Dispatcher{
		config: config,
		logger: logger,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		notify:  desktopNotify,
		session: session,
	}
}

// Info logs message and shows it on the desktop.
func (d *Dispatcher) Info(_ context.Context, message string) {
	d.logger.Info().Msg(message)
	d.desktop(message)
}

// Warn logs message as a warning and shows it on the desktop.
func (d *Dispatcher) Warn(_ context.Context, message string) {
	d.logger.Warn().Msg(message)
	d.desktop(message)
}

// Error logs message as an error and shows it on the desktop.
func (d *Dispatcher) Error(_ context.Context, message string) {
	d.logger.Error().Msg(message)
	d.desktop(message)
}

func (d *Dispatcher) desktop(message string) {
	if !d.config.Desktop {
		return
	}
	message = strings.TrimSpace(message)
	if len(message) > 800 {
		message = message[:800] + "..."
	}
	if err := d.notify(appTitle, message); err != nil {
		d.logger.Debug().Err(err).Msg("Desktop notification failed")
	}
}

// Track posts the event to the telemetry webhook when one is configured.
func (d *Dispatcher) Track(ctx context.Context, event string, properties map[string]string) {
	if d.config.TelemetryURL == "" {
		return
	}

	payload := map[string]any{
		"event":      event,
		"session":    d.session,
		"properties": properties,
		"timestamp":  time.Now().Unix(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.TelemetryURL, bytes.NewReader(body))
	if err != nil {
		d.logger.Debug().Err(err).Str("event", event).Msg("Telemetry request failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Debug().Err(err).Str("event", event).Msg("Telemetry send failed")
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}
