package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type setImportanceRequest struct {
	Name      string `json:"name" validate:"required"`
	Important bool   `json:"important"`
}

// listImportance handles GET /api/v1/authors/importance.
func (s *Server) listImportance(w http.ResponseWriter, r *http.Request) {
	entries, err := s.authorRepo.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list importance registry failed")
		writeDomainError(w, err)
		return
	}

	resp := make([]importanceResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, importanceResponse{Name: e.Name, Important: e.Important})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"authors": resp})
}

// setImportance handles PUT /api/v1/authors/importance.
func (s *Server) setImportance(w http.ResponseWriter, r *http.Request) {
	var req setImportanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	entry, err := s.authorRepo.Set(r.Context(), req.Name, req.Important)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importanceResponse{Name: entry.Name, Important: entry.Important})
}

// deleteImportance handles DELETE /api/v1/authors/importance/{name}.
func (s *Server) deleteImportance(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.authorRepo.Delete(r.Context(), name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
