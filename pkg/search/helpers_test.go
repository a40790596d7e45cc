package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/postsearch/pkg/cache"
	"github.com/rubiojr/postsearch/pkg/document"
	"github.com/rubiojr/postsearch/pkg/storage"
)

// fakeStore matches any query term as a case-insensitive substring of
// title, body or tags and counts calls.
type fakeStore struct {
	mu      sync.Mutex
	docs    []document.Document
	calls   int
	queries []storage.Query
	err     error
	// override, when set, replaces the matching logic entirely.
	override func(storage.Query) []document.Document
}

func (s *fakeStore) Search(ctx context.Context, q storage.Query) ([]document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.queries = append(s.queries, q)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.override != nil {
		return s.override(q), nil
	}

	terms := strings.Fields(strings.ToLower(q.Text))
	var out []document.Document
	for _, d := range s.docs {
		if q.After != "" && d.CreationDate <= q.After {
			continue
		}
		haystack := strings.ToLower(d.Title + " " + d.Body + " " + d.Tags)
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				out = append(out, d)
				break
			}
		}
	}
	if q.Order == storage.OrderCreated {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreationDate != out[j].CreationDate {
				return out[i].CreationDate < out[j].CreationDate
			}
			return out[i].ID < out[j].ID
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) LastQuery() storage.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

// countingCache wraps a cache.Cache, counting operations and optionally
// failing them.
type countingCache struct {
	next cache.Cache

	mu      sync.Mutex
	gets    int
	sets    int
	setKeys []string
	ttls    []time.Duration
	failGet bool
	failSet bool
}

var errCacheDown = errors.New("cache: connection refused")

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	c.gets++
	fail := c.failGet
	c.mu.Unlock()
	if fail {
		return nil, false, errCacheDown
	}
	return c.next.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.setKeys = append(c.setKeys, key)
	c.ttls = append(c.ttls, ttl)
	fail := c.failSet
	c.mu.Unlock()
	if fail {
		return errCacheDown
	}
	return c.next.Set(ctx, key, payload, ttl)
}

func (c *countingCache) Close() error { return c.next.Close() }

func (c *countingCache) Ops() (gets, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets, c.sets
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// rustDocs builds n documents matching "rust" dated 2020-01-01 onwards.
func rustDocs(n int) []document.Document {
	docs := make([]document.Document, n)
	for i := range docs {
		docs[i] = document.Document{
			ID:           fmt.Sprintf("%d", i+1),
			CreationDate: fmt.Sprintf("2020-01-%02d", i+1),
			Score:        "3",
			ViewCount:    "100",
			Body:         "<p>all about rust</p>",
			Title:        fmt.Sprintf("Rust post %d", i+1),
			Tags:         "|rust|",
		}
	}
	return docs
}

type fixture struct {
	store *fakeStore
	cache *countingCache
	mem   *cache.Memory
	clock *testClock
	coord *Coordinator
}

func newFixture(docs []document.Document) *fixture {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	mem := cache.NewMemory(0, cache.WithClock(clock.Now))
	cc := &countingCache{next: mem}
	store := &fakeStore{docs: docs}
	return &fixture{
		store: store,
		cache: cc,
		mem:   mem,
		clock: clock,
		coord: NewCoordinator(store, cc, Options{}),
	}
}
