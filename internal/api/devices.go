package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
)

// deviceResponse is a device with its room name resolved.
type deviceResponse struct {
	device.Device
	RoomName string `json:"room_name"`
	On       bool   `json:"on"`
}

// StateRequest is the body of PUT /devices/{id}/state. Level wins when both
// fields are set.
type StateRequest struct {
	Level *int  `json:"level,omitempty"`
	On    *bool `json:"on,omitempty"`
}

// AllStateRequest is the body of PUT /devices/all/state.
type AllStateRequest struct {
	On bool `json:"on"`
}

func (s *Server) toDeviceResponse(d device.Device) deviceResponse {
	return deviceResponse{
		Device:   d,
		RoomName: s.sess.Devices.RoomName(d.Room),
		On:       d.IsOn(),
	}
}

// deviceID parses the {id} URL parameter, writing a 400 on failure.
func deviceID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, r, "device id must be an integer")
		return 0, false
	}
	return id, true
}

// handleListDevices returns all devices in ID order, optionally filtered
// by ?room=<code>.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var devices []device.Device
	if raw := r.URL.Query().Get("room"); raw != "" {
		room, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, r, "room must be an integer room code")
			return
		}
		devices = s.sess.Devices.ByRoom(room)
	} else {
		devices = s.sess.Devices.All()
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, s.toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	d, err := s.sess.Devices.Get(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toDeviceResponse(d))
}

// handleSetDeviceState sends SET_LOAD for one device. The response carries
// the level now cached, which for a switch is 0 or 100.
func (s *Server) handleSetDeviceState(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req StateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		d   device.Device
		err error
	)
	switch {
	case req.Level != nil:
		d, err = s.sess.Control.SetLevel(r.Context(), id, *req.Level)
	case req.On != nil && *req.On:
		d, err = s.sess.Control.TurnOn(r.Context(), id)
	case req.On != nil:
		d, err = s.sess.Control.TurnOff(r.Context(), id)
	default:
		writeBadRequest(w, r, "level or on is required")
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toDeviceResponse(d))
}

// handleSetAllState turns every device on or off and reports how many
// commands were sent.
func (s *Server) handleSetAllState(w http.ResponseWriter, r *http.Request) {
	var req AllStateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var applied int
	if req.On {
		applied = s.sess.Control.AllOn(r.Context())
	} else {
		applied = s.sess.Control.AllOff(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"on":      req.On,
		"applied": applied,
		"devices": s.sess.Devices.Count(),
	})
}

// handleRefreshDevice asks the controller for the device's current level.
func (s *Server) handleRefreshDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	if _, err := s.sess.Control.QueryBrightness(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	d, err := s.sess.Devices.Get(id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toDeviceResponse(d))
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := s.sess.Devices.Rooms()
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": rooms,
		"count": len(rooms),
	})
}
