package api

import (
	"net/http"
	"time"

	"github.com/rubiojr/postsearch/pkg/document"
	"github.com/rubiojr/postsearch/pkg/search"
	"github.com/rubiojr/postsearch/pkg/version"
)

func (s *Server) HandleAutocomplete(w http.ResponseWriter, r *http.Request) {
	req := search.ParseRequest(r.URL.Query())
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	titles, err := s.coordinator.Autocomplete(r.Context(), req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if titles == nil {
		titles = []string{}
	}

	s.writeJSON(w, http.StatusOK, AutocompleteResponse{Suggestions: titles})
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req := search.ParseRequest(r.URL.Query())
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	page, err := s.coordinator.Search(r.Context(), req.Query, req.Cursor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if page.Results == nil {
		page.Results = []document.Document{}
	}

	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) HandleRankedSearch(w http.ResponseWriter, r *http.Request) {
	req := search.ParseRequest(r.URL.Query())
	if err := req.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	docs, err := s.coordinator.Rank(r.Context(), req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}

	s.writeJSON(w, http.StatusOK, RankedSearchResponse{Results: docs})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
