// Package cache memoizes search payloads under string keys with a fixed
// time-to-live.
//
// A Cache is a pure string-keyed byte store: it knows nothing about
// queries, cursors or endpoints. Callers build keys (see Key) and decide
// what to store. Backends report failures as errors; it is up to the caller
// to decide whether a failing cache is fatal. The search coordinator treats
// every cache error as a miss.
package cache

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Cache is the contract shared by every backend.
type Cache interface {
	// Get returns the payload stored under key. ok is false when the key
	// is absent or expired.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Set stores payload under key, replacing any previous entry, and
	// expires it after ttl.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Close releases the backend's resources.
	Close() error
}

// Pinger is implemented by backends that hold a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key joins a namespace and its parameters with ':'. Each part is
// query-escaped so distinct parameter tuples never produce the same key,
// even when a part itself contains ':'. An empty part stays empty.
//
//	Key("search", "rust", "")           == "search:rust:"
//	Key("search", "a:b", "")            == "search:a%3Ab:"
//	Key("autocomplete", "go generics")  == "autocomplete:go+generics"
func Key(namespace string, parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(p))
	}
	return b.String()
}

// Nop never stores anything. It stands in when caching is disabled or the
// configured backend could not be reached.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Close() error { return nil }
