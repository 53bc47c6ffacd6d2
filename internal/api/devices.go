package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-leds/internal/device"
)

// controlResult is the per-device outcome reported by bulk and group control.
type controlResult struct {
	ID    device.DeviceID `json:"id"`
	State device.State    `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

func toControlResults(results []device.ControlResult) ([]controlResult, int) {
	out := make([]controlResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = controlResult{ID: res.ID, State: res.State}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			failed++
		}
	}
	return out, failed
}

// handleListLEDs returns every known LED with its stored state.
//
// GET /api/leds
// Response: [{"id": "...", "state": {...}}, ...]
func (s *Server) handleListLEDs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.controller.ListDevices(r.Context())
	if err != nil {
		s.writeControllerError(w, r, err, "list leds")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleBulkSetLEDs applies a state to several LEDs.
//
// PUT /api/leds
// Body: [{"id": "...", "state": {"state": "on"}}, ...]
// Response: 204 when every LED was commanded, otherwise 200 with the
// per-LED results.
func (s *Server) handleBulkSetLEDs(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	batch, err := device.ParseAssignments(body)
	if err != nil {
		s.writeControllerError(w, r, err, "set leds")
		return
	}

	results, failed := toControlResults(s.controller.ApplyBatch(r.Context(), batch))
	if failed == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.logger.Warn("bulk set partially failed", "failed", failed, "total", len(results))
	writeJSON(w, http.StatusOK, results)
}

// handleGetLED returns one LED's stored state.
//
// GET /api/leds/{id}
func (s *Server) handleGetLED(w http.ResponseWriter, r *http.Request) {
	id := device.DeviceID(chi.URLParam(r, "id"))

	state, err := s.controller.Get(r.Context(), id)
	if err != nil {
		s.writeControllerError(w, r, err, "get led")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleSetLED sets a simple or blinking state.
//
// PUT /api/leds/{id}
// Body: {"state": "on"|"off"|"toggle"} or
// {"state": "blink", "infinite": ..., "delay": ..., "count": ...}
// Response: the stored state
func (s *Server) handleSetLED(w http.ResponseWriter, r *http.Request) {
	s.applyLEDControl(w, r, device.ParseIntent)
}

// handleBlinkLED starts a LED blinking.
//
// PUT /api/leds/{id}/blink
// Body: {"infinite": true, "delay": 5, "count": 3}
// Response: the stored state
func (s *Server) handleBlinkLED(w http.ResponseWriter, r *http.Request) {
	s.applyLEDControl(w, r, device.ParseBlinkIntent)
}

func (s *Server) applyLEDControl(w http.ResponseWriter, r *http.Request, parse func([]byte) (device.Intent, error)) {
	id := device.DeviceID(chi.URLParam(r, "id"))

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	intent, err := parse(body)
	if err != nil {
		s.writeControllerError(w, r, err, "set led")
		return
	}

	state, err := s.controller.ApplyControl(r.Context(), id, intent)
	if err != nil {
		if errors.Is(err, device.ErrCommandNotDelivered) {
			s.logger.Warn("led state stored without command", "device_id", id, "state", state.Kind())
		}
		s.writeControllerError(w, r, err, "set led")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
