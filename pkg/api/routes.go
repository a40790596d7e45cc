package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /autocomplete", s.HandleAutocomplete)
	mux.HandleFunc("GET /search", s.HandleSearch)
	mux.HandleFunc("GET /search/ranked", s.HandleRankedSearch)
	mux.HandleFunc("GET /health", s.HandleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}
