package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/backup"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/discovery"
)

// healthCheckTimeout bounds all component checks for one /health request.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports per-component health. Any failing component turns
// the status to "degraded" and the response code to 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.health[name].HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int64(s.sess.Uptime().Seconds()),
		"devices":        s.sess.Devices.Count(),
		"components":     components,
	})
}

func discoveryBody(res discovery.Result) map[string]any {
	return map[string]any{
		"state":      res.State.String(),
		"advertised": res.Advertised,
		"inserted":   res.Inserted,
		"skipped":    res.Skipped,
		"missing":    res.Missing,
		"partial":    res.Partial(),
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}
}

// handleDiscovery returns the workflow state and the last completed pass.
func (s *Server) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       s.sess.Discovery.State().String(),
		"last_result": discoveryBody(s.sess.Discovery.LastResult()),
	})
}

// handleRunDiscovery runs a full pass and blocks until it finishes or the
// budget runs out. A second caller while one is running gets 409.
func (s *Server) handleRunDiscovery(w http.ResponseWriter, r *http.Request) {
	res, err := s.sess.RunDiscovery(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, discoveryBody(res))
}

// handleExport streams a backup bundle. YAML unless ?format=json.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := bundleFormat(w, r)
	if !ok {
		return
	}

	b := backup.Export(s.sess.Scenes.Registry(), s.sess.Schedules)

	contentType := "application/yaml"
	if format == backup.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="newmar-backup.%s"`, format))
	w.WriteHeader(http.StatusOK)
	if err := backup.Encode(w, b, format); err != nil {
		s.logger.Warn("export write failed", "error", err)
	}
}

// handleImport reads a bundle in the request body and upserts everything
// in it. Existing entries with other names are left alone.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format, ok := bundleFormat(w, r)
	if !ok {
		return
	}

	b, err := backup.Decode(r.Body, format)
	if err != nil {
		writeBadRequest(w, r, "invalid bundle: "+err.Error())
		return
	}

	res, err := backup.Import(r.Context(), b, s.sess.Scenes.Registry(), s.sess.Schedules)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scenes":    res.Scenes,
		"schedules": res.Schedules,
	})
}

// bundleFormat reads ?format=, defaulting to YAML.
func bundleFormat(w http.ResponseWriter, r *http.Request) (backup.Format, bool) {
	switch r.URL.Query().Get("format") {
	case "", "yaml":
		return backup.FormatYAML, true
	case "json":
		return backup.FormatJSON, true
	default:
		writeBadRequest(w, r, "format must be yaml or json")
		return "", false
	}
}
