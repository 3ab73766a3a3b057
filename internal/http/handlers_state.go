package http

import (
	"net/http"

	applog "shoplist/internal/log"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(s.store.Snapshot()).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string][]string{"categories": s.store.Categories()}).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.store.AddCategory(sanitizeInput(req.Name)); err != nil {
		s.writeStoreError(w, r, applog.OpAddCategory, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Payload(map[string][]string{"categories": s.store.Categories()}).
		Write(w)
}

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(s.store.Filter()).Write(w)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	patch, err := req.patch()
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	s.store.SetFilter(patch)
	NewJSONResponse().Payload(s.store.Filter()).Write(w)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	dark := s.store.ToggleDarkMode()
	NewJSONResponse().Payload(map[string]bool{"darkMode": dark}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(s.store.Summary()).Write(w)
}
