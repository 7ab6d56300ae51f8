package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
)

// scheduleResponse adds whether an evaluator is currently running.
type scheduleResponse struct {
	schedule.Schedule
	Active bool `json:"active"`
}

// CreateScheduleRequest is the body of POST /schedules. Activate starts the
// evaluator straight away.
type CreateScheduleRequest struct {
	Name     string           `json:"name"`
	Events   []schedule.Event `json:"events"`
	Activate bool             `json:"activate"`
}

// UpdateScheduleRequest is the body of PATCH /schedules/{name}.
type UpdateScheduleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) scheduleResponse(sc schedule.Schedule) scheduleResponse {
	return scheduleResponse{Schedule: sc, Active: s.sess.Schedules.IsActive(sc.Name)}
}

func (s *Server) handleListSchedules(w http.ResponseWriter, _ *http.Request) {
	list := s.sess.Schedules.List()
	out := make([]scheduleResponse, 0, len(list))
	for _, sc := range list {
		out = append(out, s.scheduleResponse(sc))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules": out,
		"count":     len(out),
	})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sc, err := s.sess.Schedules.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.scheduleResponse(*sc))
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sc, err := s.sess.Schedules.Create(r.Context(), req.Name, req.Events)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if req.Activate {
		if err := s.sess.Schedules.Activate(sc.Name); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, s.scheduleResponse(*sc))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req UpdateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeBadRequest(w, r, "enabled is required")
		return
	}

	if err := s.sess.Schedules.SetEnabled(r.Context(), name, *req.Enabled); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.handleGetSchedule(w, r)
}

func (s *Server) handleActivateSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Schedules.Activate(chi.URLParam(r, "name")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.handleGetSchedule(w, r)
}

// handleDeactivateSchedule stops future ticks. A dispatch already running
// finishes on its own.
func (s *Server) handleDeactivateSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.sess.Schedules.Get(name); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.sess.Schedules.Deactivate(name)
	s.handleGetSchedule(w, r)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	removed, err := s.sess.Schedules.Delete(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !removed {
		writeNotFound(w, r, "schedule not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
