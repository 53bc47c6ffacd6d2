package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-leds/internal/device"
)

// membershipRequest is the PATCH /api/groups/{id} body.
type membershipRequest struct {
	Add    []device.DeviceID `json:"add"`
	Remove []device.DeviceID `json:"remove"`
}

// groupControlResponse echoes the applied state with each member's outcome.
type groupControlResponse struct {
	Intent  device.State    `json:"intent"`
	Results []controlResult `json:"results"`
}

// groupID parses the {id} URL parameter. Non-integer ids cannot name a
// group, so they are answered with 404.
func groupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := device.ParseGroupID(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "group not found")
		return 0, false
	}
	return id, true
}

// handleListGroups returns every group record.
//
// GET /api/groups
// Response: [{"id": "1", "data": {...}}, ...]
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	entries, err := s.controller.ListGroups(r.Context())
	if err != nil {
		s.writeControllerError(w, r, err, "list groups")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCreateGroup creates a group from an arbitrary JSON object.
//
// POST /api/groups
// Body: {"name": "hall", "leds": ["1", "2"]}
// Response: 201 Created with the stored group including its assigned id
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	g, err := device.ParseGroup(body)
	if err != nil {
		s.writeControllerError(w, r, err, "create group")
		return
	}

	created, err := s.controller.CreateGroup(r.Context(), g)
	if err != nil {
		s.writeControllerError(w, r, err, "create group")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetGroup returns one group record.
//
// GET /api/groups/{id}
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	g, err := s.controller.GetGroup(r.Context(), id)
	if err != nil {
		s.writeControllerError(w, r, err, "get group")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleEditGroup adds and removes members.
//
// PATCH /api/groups/{id}
// Body: {"add": ["5"], "remove": ["9"]}
// Response: the updated group
func (s *Server) handleEditGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req membershipRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	g, err := s.controller.EditMembership(r.Context(), id, req.Add, req.Remove)
	if err != nil {
		s.writeControllerError(w, r, err, "edit group")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleDeleteGroup removes a group.
//
// DELETE /api/groups/{id}
// Response: {"success": true} when a record was removed
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	removed, err := s.controller.DeleteGroup(r.Context(), id)
	if err != nil {
		s.writeControllerError(w, r, err, "delete group")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": removed})
}

// handleGroupLEDs returns every member with its stored state, null for
// members never seen.
//
// GET /api/groups/{id}/leds
func (s *Server) handleGroupLEDs(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	members, err := s.controller.GroupMembers(r.Context(), id)
	if err != nil {
		s.writeControllerError(w, r, err, "list group leds")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// handleControlGroup applies one intent to every member, best-effort.
//
// PUT /api/groups/{id}/state
// Body: {"state": ..., "infinite"?: ..., "delay"?: ..., "count"?: ...}
// Response: {"intent": {...}, "results": [...]}
func (s *Server) handleControlGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	intent, err := device.ParseIntent(body)
	if err != nil {
		s.writeControllerError(w, r, err, "control group")
		return
	}

	results, err := s.controller.ControlGroup(r.Context(), id, intent)
	if err != nil {
		s.writeControllerError(w, r, err, "control group")
		return
	}

	out, _ := toControlResults(results)
	writeJSON(w, http.StatusOK, groupControlResponse{Intent: intent.State(), Results: out})
}
