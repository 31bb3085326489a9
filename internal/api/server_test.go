package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mhbosch/vento-bridge/internal/bridge"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/config"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/logging"
	"github.com/mhbosch/vento-bridge/internal/vento"
)

type fakeBroker struct{ connected bool }

func (f *fakeBroker) IsConnected() bool { return f.connected }

type fakeBridge struct{ stats bridge.Stats }

func (f *fakeBridge) Stats() bridge.Stats { return f.stats }

type fakeDevice struct{ stats vento.Stats }

func (f *fakeDevice) Stats() vento.Stats { return f.stats }

func newTestServer(t *testing.T, broker *fakeBroker, br *fakeBridge, dev *fakeDevice) *Server {
	t.Helper()
	logger, err := logging.New(config.LoggingConfig{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	}, "test")
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	s, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logger,
		Broker:  broker,
		Bridge:  br,
		Device:  dev,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	logger, _ := logging.New(config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"}, "test")
	broker := &fakeBroker{}
	br := &fakeBridge{}
	dev := &fakeDevice{}

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing logger", Deps{Broker: broker, Bridge: br, Device: dev}},
		{"missing broker", Deps{Logger: logger, Bridge: br, Device: dev}},
		{"missing bridge", Deps{Logger: logger, Broker: broker, Device: dev}},
		{"missing device", Deps{Logger: logger, Broker: broker, Bridge: br}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() = nil error, want error")
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		wantStatus int
	}{
		{"broker connected", true, http.StatusOK},
		{"broker disconnected", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeBroker{connected: tt.connected}, &fakeBridge{}, &fakeDevice{})
			router := s.buildRouter()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	lastPoll := time.Now().Add(-3 * time.Second)
	br := &fakeBridge{stats: bridge.Stats{
		StartedAt:       time.Now().Add(-time.Minute),
		CommandsHandled: 4,
		CommandsFailed:  1,
		PollsTotal:      12,
		PollsFailed:     2,
		StatePublishes:  30,
		DeviceOnline:    true,
		LastPollSuccess: lastPoll,
	}}
	dev := &fakeDevice{stats: vento.Stats{
		FramesTx:     16,
		FramesRx:     14,
		Timeouts:     2,
		Retries:      2,
		DecodeErrors: 1,
		LastContact:  lastPoll,
	}}

	s := newTestServer(t, &fakeBroker{connected: true}, br, dev)
	router := s.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if got.Version != "test" {
		t.Errorf("version = %q, want %q", got.Version, "test")
	}
	if !got.BrokerConnected || !got.DeviceOnline {
		t.Errorf("connectivity = broker:%v device:%v, want both true", got.BrokerConnected, got.DeviceOnline)
	}
	if got.UptimeSeconds <= 0 {
		t.Errorf("uptime = %d, want > 0", got.UptimeSeconds)
	}
	if got.Bridge.CommandsHandled != 4 || got.Bridge.PollsTotal != 12 {
		t.Errorf("bridge counters = %+v", got.Bridge)
	}
	if got.Device.FramesTx != 16 || got.Device.Timeouts != 2 {
		t.Errorf("device counters = %+v", got.Device)
	}
	if got.LastPollSuccess == nil {
		t.Error("last_poll_success missing")
	}
	if got.Device.LastContact == nil {
		t.Error("device last_contact missing")
	}
}

func TestStatusOmitsZeroTimestamps(t *testing.T) {
	s := newTestServer(t, &fakeBroker{connected: true}, &fakeBridge{}, &fakeDevice{})
	router := s.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, present := raw["last_poll_success"]; present {
		t.Error("last_poll_success present for never-polled bridge")
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, &fakeBroker{connected: true}, &fakeBridge{}, &fakeDevice{})
	router := s.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCloseBeforeStart(t *testing.T) {
	s := newTestServer(t, &fakeBroker{}, &fakeBridge{}, &fakeDevice{})
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
