// Package storage provides read access to the post collection through a
// full-text index.
//
// Two backends implement Store: SQLite (FTS5, the default) and MongoDB
// ($text index). Both match free text against title, body and tags, filter
// on creationdate and sort either by relevance or by creationdate.
package storage

import (
	"context"
	"fmt"

	"github.com/rubiojr/postsearch/pkg/document"
)

// Order selects how matching documents are sorted.
type Order int

const (
	// OrderRelevance sorts best match first.
	OrderRelevance Order = iota
	// OrderCreated sorts by creationdate ascending, then id, giving a total
	// order suitable for cursor pagination.
	OrderCreated
)

func (o Order) String() string {
	switch o {
	case OrderRelevance:
		return "relevance"
	case OrderCreated:
		return "created"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Query describes a full-text search.
type Query struct {
	// Text is matched against title, body and tags. Any term may match.
	Text string

	// After, when non-empty, keeps only documents whose creationdate is
	// strictly greater (byte-wise) than it.
	After string

	Order Order

	// Limit caps the number of documents returned. Zero means no limit.
	Limit int

	// Prefix treats the last term of Text as a prefix. Backends without
	// prefix support ignore it.
	Prefix bool
}

// Store is a read-only view over the indexed posts.
type Store interface {
	Search(ctx context.Context, q Query) ([]document.Document, error)
	Close() error
}

// ErrUnavailable wraps the startup error of a store that could not be
// opened.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *ErrUnavailable) Unwrap() error {
	return e.Err
}

type unavailable struct {
	err error
}

// Unavailable returns a Store whose every search fails with the given
// error. It lets a server start even when its store could not be opened.
func Unavailable(err error) Store {
	return unavailable{err: &ErrUnavailable{Err: err}}
}

func (u unavailable) Search(context.Context, Query) ([]document.Document, error) {
	return nil, u.err
}

func (u unavailable) Close() error { return nil }
