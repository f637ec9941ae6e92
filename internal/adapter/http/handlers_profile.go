package adapthttp

import (
	"net/http"

	"fittrack/internal/app"
	"fittrack/internal/domain"
)

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	u := app.UserFromContext(r.Context())
	p, err := s.profiles.Get(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "profile": p})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if err := parseJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u := app.UserFromContext(r.Context())
	p, err := s.profiles.Update(r.Context(), u.ID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "profile": p})
}
