package api

import (
	"time"

	"github.com/rubiojr/postsearch/pkg/document"
)

type AutocompleteResponse struct {
	Suggestions []string `json:"suggestions"`
}

type RankedSearchResponse struct {
	Results []document.Document `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// WebSocket frames. A client sends wsQuery; the server answers each one
// with either wsSuggestions or wsError, echoing the query.
type wsQuery struct {
	Q string `json:"q"`
}

type wsSuggestions struct {
	Q           string   `json:"q"`
	Suggestions []string `json:"suggestions"`
}

type wsError struct {
	Q     string `json:"q"`
	Error string `json:"error"`
}
