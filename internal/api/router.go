package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
	})

	return r
}

// handleHealth reports liveness. The bridge is degraded without a broker
// connection, so that case answers 503 for load balancers and watchdogs.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.broker.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"reason": "MQTT broker not connected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// statusResponse is the /status payload.
type statusResponse struct {
	Version         string       `json:"version"`
	UptimeSeconds   int64        `json:"uptime_seconds"`
	BrokerConnected bool         `json:"broker_connected"`
	DeviceOnline    bool         `json:"device_online"`
	LastPollSuccess *time.Time   `json:"last_poll_success,omitempty"`
	Bridge          bridgeCounts `json:"bridge"`
	Device          deviceCounts `json:"device"`
}

type bridgeCounts struct {
	CommandsHandled uint64 `json:"commands_handled"`
	CommandsFailed  uint64 `json:"commands_failed"`
	PollsTotal      uint64 `json:"polls_total"`
	PollsFailed     uint64 `json:"polls_failed"`
	StatePublishes  uint64 `json:"state_publishes"`
}

type deviceCounts struct {
	FramesTx     uint64     `json:"frames_tx"`
	FramesRx     uint64     `json:"frames_rx"`
	Timeouts     uint64     `json:"timeouts"`
	Retries      uint64     `json:"retries"`
	DecodeErrors uint64     `json:"decode_errors"`
	LastContact  *time.Time `json:"last_contact,omitempty"`
}

// handleStatus reports runtime statistics from the bridge and the device
// transport.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	bs := s.bridge.Stats()
	ds := s.device.Stats()

	resp := statusResponse{
		Version:         s.version,
		BrokerConnected: s.broker.IsConnected(),
		DeviceOnline:    bs.DeviceOnline,
		Bridge: bridgeCounts{
			CommandsHandled: bs.CommandsHandled,
			CommandsFailed:  bs.CommandsFailed,
			PollsTotal:      bs.PollsTotal,
			PollsFailed:     bs.PollsFailed,
			StatePublishes:  bs.StatePublishes,
		},
		Device: deviceCounts{
			FramesTx:     ds.FramesTx,
			FramesRx:     ds.FramesRx,
			Timeouts:     ds.Timeouts,
			Retries:      ds.Retries,
			DecodeErrors: ds.DecodeErrors,
		},
	}
	if !bs.StartedAt.IsZero() {
		resp.UptimeSeconds = int64(time.Since(bs.StartedAt).Seconds())
	}
	if !bs.LastPollSuccess.IsZero() {
		t := bs.LastPollSuccess
		resp.LastPollSuccess = &t
	}
	if !ds.LastContact.IsZero() {
		t := ds.LastContact
		resp.Device.LastContact = &t
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}
