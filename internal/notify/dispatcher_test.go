package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestDispatcher_Track(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
	}))
	defer srv.Close()

	d := NewDispatcher(Config{TelemetryURL: srv.URL}, arbor.NewLogger(), "s-1")
	d.Track(context.Background(), "IoTWorkbench.AzureProvision", map[string]string{"result": "Succeeded"})

	body := <-received
	assert.Equal(t, "IoTWorkbench.AzureProvision", body["event"])
	assert.Equal(t, "s-1", body["session"])
	assert.Equal(t, map[string]any{"result": "Succeeded"}, body["properties"])
}

func TestDispatcher_TrackSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewDispatcher(Config{TelemetryURL: url}, arbor.NewLogger(), "s-1")
	assert.NotPanics(t, func() {
		d.Track(context.Background(), "event", nil)
	})

	d = NewDispatcher(Config{}, arbor.NewLogger(), "s-1")
	d.Track(context.Background(), "event", nil)
}

func TestDispatcher_Desktop(t *testing.T) {
	var shown []string
	d := NewDispatcher(Config{Desktop: true}, arbor.NewLogger(), "")
	d.notify = func(title, message string) error {
		assert.Equal(t, appTitle, title)
		shown = append(shown, message)
		return errors.New("no notification daemon")
	}

	d.Info(context.Background(), "Azure deploy succeeded.")
	d.Warn(context.Background(), "Provision canceled.")
	require.Len(t, shown, 2)
	assert.Equal(t, "Provision canceled.", shown[1])

	d.config.Desktop = false
	d.Error(context.Background(), "boom")
	assert.Len(t, shown, 2)
}
