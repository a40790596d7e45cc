// Package search coordinates the query cache and the document store behind
// the autocomplete and search endpoints.
//
// # Overview
//
// A Coordinator receives a free-text query, decides whether the answer can
// be served from the cache, and otherwise builds a full-text query for the
// store, fills the cache and answers. It owns three operations:
//
//   - Autocomplete: up to SuggestionLimit titles, best match first.
//   - Search: one page of up to PageSize documents sorted by creationdate,
//     plus the cursor for the next page.
//   - Rank: up to PageSize documents sorted by relevance, not paginated.
//
// # Cache keys
//
// Keys are namespaced by operation and built from every request parameter:
//
//	autocomplete:<q>
//	search:<q>:<cursor>     (cursor empty on the first page)
//	rank:<q>
//
// Parameters are query-escaped (see cache.Key), so no two parameter tuples
// share a key. Entries live for TTL (60s by default) and are never
// invalidated explicitly.
//
// # Pagination
//
// A Cursor is the creationdate of the last document of a page, passed
// back verbatim. The next page holds documents whose creationdate is
// strictly greater. An absent cursor in a response means there is nothing
// left; a full page may still be the last one.
//
// A search page served from the cache carries no cursor. Clients that need
// to continue must already hold the cursor from the first time they
// fetched that page.
//
// # Failure handling
//
// An empty query fails with ErrEmptyQuery before the cache or the store is
// touched. Cache failures are logged and treated as misses. Store failures
// are returned to the caller, which reports them as a generic server error.
package search
