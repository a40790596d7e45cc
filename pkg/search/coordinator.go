package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rubiojr/postsearch/pkg/cache"
	"github.com/rubiojr/postsearch/pkg/document"
	"github.com/rubiojr/postsearch/pkg/log"
	"github.com/rubiojr/postsearch/pkg/metrics"
	"github.com/rubiojr/postsearch/pkg/storage"
)

const (
	DefaultTTL             = 60 * time.Second
	DefaultPageSize        = 10
	DefaultSuggestionLimit = 10
)

// Endpoint names used for cache namespaces, log fields and metric labels.
const (
	EndpointAutocomplete = "autocomplete"
	EndpointSearch       = "search"
	EndpointRank         = "rank"
)

// Options tunes a Coordinator. Zero fields take the defaults.
type Options struct {
	TTL             time.Duration
	PageSize        int
	SuggestionLimit int
	Metrics         *metrics.Metrics
}

// Page is one page of search results. Its JSON form is the /search
// response body.
type Page struct {
	Results []document.Document `json:"results"`
	Cursor  Cursor              `json:"cursor"`

	// Cached is set when the page came from the cache.
	Cached bool `json:"-"`
}

// Coordinator answers autocomplete and search requests from the cache or
// the store. It holds no per-request state and is safe for concurrent use.
type Coordinator struct {
	store           storage.Store
	cache           cache.Cache
	ttl             time.Duration
	pageSize        int
	suggestionLimit int
	metrics         *metrics.Metrics
	logger          *log.Logger
}

// NewCoordinator wires a coordinator to its store and cache. A nil cache
// disables caching.
func NewCoordinator(store storage.Store, c cache.Cache, opts Options) *Coordinator {
	if c == nil {
		c = cache.Nop{}
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SuggestionLimit <= 0 {
		opts.SuggestionLimit = DefaultSuggestionLimit
	}

	return &Coordinator{
		store:           store,
		cache:           c,
		ttl:             opts.TTL,
		pageSize:        opts.PageSize,
		suggestionLimit: opts.SuggestionLimit,
		metrics:         opts.Metrics,
		logger:          log.ForService("search"),
	}
}

// PageSize returns the maximum number of documents per search page.
func (c *Coordinator) PageSize() int {
	return c.pageSize
}

// AutocompleteKey is the cache key of an autocomplete request. The query is
// query-escaped (see cache.Key), so "go generics" is stored under
// "autocomplete:go+generics" rather than the literal "autocomplete:" + q, and
// keys are not interchangeable with caches that store the raw query.
func AutocompleteKey(query string) string {
	return cache.Key(EndpointAutocomplete, query)
}

// SearchKey is the cache key of one search page, "search:<q>:<cursor>" with
// both parts query-escaped and an empty cursor part for the first page.
func SearchKey(query string, cursor Cursor) string {
	return cache.Key(EndpointSearch, query, cursor.String())
}

// RankKey is the cache key of a relevance-ordered search.
func RankKey(query string) string {
	return cache.Key(EndpointRank, query)
}

// Autocomplete returns up to SuggestionLimit titles of documents matching
// query, best match first. The last query term also matches as a prefix.
func (c *Coordinator) Autocomplete(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	l := c.logger.With("op", EndpointAutocomplete).With("q", query)
	key := AutocompleteKey(query)

	var titles []string
	if c.lookup(ctx, l, EndpointAutocomplete, key, &titles) {
		return titles, nil
	}

	docs, err := c.query(ctx, EndpointAutocomplete, storage.Query{
		Text:   query,
		Order:  storage.OrderRelevance,
		Limit:  c.suggestionLimit,
		Prefix: true,
	})
	if err != nil {
		l.Errorf("store search failed: %v", err)
		return nil, fmt.Errorf("searching suggestions: %w", err)
	}
	if len(docs) > c.suggestionLimit {
		docs = docs[:c.suggestionLimit]
	}

	titles = document.Titles(docs)
	c.fill(ctx, l, EndpointAutocomplete, key, titles)
	return titles, nil
}

// Search returns the page of documents matching query that follows cursor,
// oldest first, and the cursor of the next page.
//
// A page shorter than PageSize is the last one and has an absent cursor. A
// full page carries the creationdate of its last document even when nothing
// follows; the next call then returns an empty page. A page served from the
// cache has an absent cursor.
func (c *Coordinator) Search(ctx context.Context, query string, cursor Cursor) (*Page, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	l := c.logger.With("op", EndpointSearch).With("q", query).With("cursor", cursor.String())
	key := SearchKey(query, cursor)

	var cached []document.Document
	if c.lookup(ctx, l, EndpointSearch, key, &cached) {
		if cached == nil {
			cached = []document.Document{}
		}
		return &Page{Results: cached, Cached: true}, nil
	}

	docs, err := c.query(ctx, EndpointSearch, storage.Query{
		Text:  query,
		After: cursor.String(),
		Order: storage.OrderCreated,
		Limit: c.pageSize,
	})
	if err != nil {
		l.Errorf("store search failed: %v", err)
		return nil, fmt.Errorf("searching page: %w", err)
	}
	if len(docs) > c.pageSize {
		docs = docs[:c.pageSize]
	}
	if err := validatePage(cursor, docs); err != nil {
		l.Errorf("store returned an unusable page: %v", err)
		return nil, err
	}

	c.fill(ctx, l, EndpointSearch, key, docs)
	return &Page{Results: docs, Cursor: NextCursor(docs, c.pageSize)}, nil
}

// Rank returns up to PageSize documents matching query, best match first.
// It is not paginated.
func (c *Coordinator) Rank(ctx context.Context, query string) ([]document.Document, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	l := c.logger.With("op", EndpointRank).With("q", query)
	key := RankKey(query)

	var docs []document.Document
	if c.lookup(ctx, l, EndpointRank, key, &docs) {
		if docs == nil {
			docs = []document.Document{}
		}
		return docs, nil
	}

	docs, err := c.query(ctx, EndpointRank, storage.Query{
		Text:  query,
		Order: storage.OrderRelevance,
		Limit: c.pageSize,
	})
	if err != nil {
		l.Errorf("store search failed: %v", err)
		return nil, fmt.Errorf("ranking documents: %w", err)
	}
	if len(docs) > c.pageSize {
		docs = docs[:c.pageSize]
	}

	c.fill(ctx, l, EndpointRank, key, docs)
	return docs, nil
}

func (c *Coordinator) query(ctx context.Context, endpoint string, q storage.Query) ([]document.Document, error) {
	start := time.Now()
	docs, err := c.store.Search(ctx, q)
	c.metrics.RecordStoreQuery(endpoint, time.Since(start), len(docs), err)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return docs, nil
}

// lookup decodes the entry under key into v. Any cache failure counts as
// a miss.
func (c *Coordinator) lookup(ctx context.Context, l *log.Logger, endpoint, key string, v any) bool {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.metrics.RecordCacheError(endpoint, "get")
		l.Warnf("cache get failed, falling back to store: %v", err)
		return false
	}
	if !ok {
		c.metrics.RecordCacheMiss(endpoint)
		l.Debugf("cache miss")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.metrics.RecordCacheError(endpoint, "decode")
		l.Warnf("discarding undecodable cache entry %s: %v", key, err)
		return false
	}

	c.metrics.RecordCacheHit(endpoint)
	l.Debugf("cache hit")
	return true
}

func (c *Coordinator) fill(ctx context.Context, l *log.Logger, endpoint, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.Warnf("encoding cache entry %s: %v", key, err)
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.metrics.RecordCacheError(endpoint, "set")
		l.Warnf("cache set failed: %v", err)
	}
}
