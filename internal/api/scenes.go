package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SaveSceneRequest is the body of POST /scenes. Room limits the snapshot
// to one room code; omit it to capture every device.
type SaveSceneRequest struct {
	Name string `json:"name"`
	Room *int   `json:"room,omitempty"`
}

func (s *Server) handleListScenes(w http.ResponseWriter, _ *http.Request) {
	scenes := s.sess.Scenes.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"scenes": scenes,
		"count":  len(scenes),
	})
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.sess.Scenes.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// handleSaveScene snapshots current levels under a name, overwriting any
// scene already stored with it.
func (s *Server) handleSaveScene(w http.ResponseWriter, r *http.Request) {
	var req SaveSceneRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sc, err := s.sess.Scenes.Save(r.Context(), req.Name, req.Room)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	res, err := s.sess.LoadScene(r.Context(), chi.URLParam(r, "name"), "api")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scene":   res.Scene,
		"members": res.Members,
		"applied": res.Applied,
		"missing": res.Missing,
		"failed":  res.Failed,
	})
}

func (s *Server) handlePruneScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := s.sess.Scenes.Prune(r.Context(), name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	_, getErr := s.sess.Scenes.Get(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"scene":   name,
		"removed": removed,
		"deleted": getErr != nil,
	})
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	removed, err := s.sess.Scenes.Delete(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !removed {
		writeNotFound(w, r, "scene not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
