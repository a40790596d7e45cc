package search

import (
	"errors"
	"net/url"
)

// ErrEmptyQuery is returned when a request has no query text.
var ErrEmptyQuery = errors.New("query parameter is required")

// Request holds the parameters of an autocomplete or search call.
type Request struct {
	// Query is the free text to match. Required.
	Query string

	// Cursor bounds a search to documents after a previous page. Ignored
	// by autocomplete and rank.
	Cursor Cursor
}

// ParseRequest reads q and cursor from HTTP query parameters. Only the
// first value of each is used.
func ParseRequest(values url.Values) Request {
	return Request{
		Query:  values.Get("q"),
		Cursor: ParseCursor(values.Get("cursor")),
	}
}

// Validate rejects requests without a query.
func (r Request) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	return nil
}
