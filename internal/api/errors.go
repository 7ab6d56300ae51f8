package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/backup"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/correlation"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/discovery"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/scene"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/transport"
)

// Error is the body of every non-2xx response. RequestID echoes the
// X-Request-ID header so a client can quote it against the server log.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeUnavailable    = "controller_unavailable"
	ErrCodeTimeout        = "controller_timeout"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // client may have gone away
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(r),
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps the lighting packages' sentinel errors onto HTTP
// statuses. Anything unrecognised is logged and reported as a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, r, "device not found")
	case errors.Is(err, scene.ErrSceneNotFound):
		writeNotFound(w, r, "scene not found")
	case errors.Is(err, schedule.ErrScheduleNotFound):
		writeNotFound(w, r, "schedule not found")

	case errors.Is(err, scene.ErrInvalidName),
		errors.Is(err, scene.ErrInvalidScene),
		errors.Is(err, scene.ErrEmptyScene),
		errors.Is(err, schedule.ErrInvalidName),
		errors.Is(err, schedule.ErrInvalidEvent),
		errors.Is(err, schedule.ErrNoEvents),
		errors.Is(err, backup.ErrUnsupportedVersion):
		writeError(w, r, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())

	case errors.Is(err, discovery.ErrInProgress):
		writeError(w, r, http.StatusConflict, ErrCodeConflict, "discovery already running")
	case errors.Is(err, schedule.ErrStopped):
		writeError(w, r, http.StatusConflict, ErrCodeConflict, "schedules are shutting down")

	case errors.Is(err, correlation.ErrTimeout), errors.Is(err, discovery.ErrTimeout):
		writeError(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, "controller did not answer in time")
	case errors.Is(err, discovery.ErrInvalidCount):
		writeError(w, r, http.StatusBadGateway, ErrCodeUnavailable, "controller sent an invalid device count")
	case errors.Is(err, transport.ErrNotConnected), errors.Is(err, transport.ErrSendFailed):
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "controller is not reachable")

	default:
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", requestID(r), "error", err)
		writeInternalError(w, r, "internal server error")
	}
}
