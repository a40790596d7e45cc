package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rubiojr/postsearch/pkg/cache"
	"github.com/rubiojr/postsearch/pkg/config"
	"github.com/rubiojr/postsearch/pkg/document"
	"github.com/rubiojr/postsearch/pkg/search"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.GetDefaultConfig()
	if err != nil {
		t.Fatalf("GetDefaultConfig: %v", err)
	}
	cfg.Store.Path = filepath.Join(t.TempDir(), "posts.db")
	return cfg
}

func writePostsJSON(t *testing.T, n int) string {
	t.Helper()
	docs := make([]document.Document, n)
	for i := range docs {
		docs[i] = document.Document{
			ID:           fmt.Sprintf("%d", i+1),
			CreationDate: fmt.Sprintf("2020-01-%02dT08:00:00.000", i+1),
			Score:        "1",
			ViewCount:    "10",
			Body:         fmt.Sprintf("<p>How do I use <code>rust</code> lifetimes, take %d?</p>", i+1),
			Title:        fmt.Sprintf("Rust question %d", i+1),
			Tags:         "<rust><lifetimes>",
		}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "posts.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenCacheBackends(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	cfg.Cache.Backend = config.CacheNone
	if _, ok := openCache(ctx, cfg).(cache.Nop); !ok {
		t.Error("expected Nop cache when caching is disabled")
	}

	cfg.Cache.Backend = config.CacheMemory
	mem := openCache(ctx, cfg)
	defer mem.Close()
	if _, ok := mem.(*cache.Memory); !ok {
		t.Errorf("expected memory cache, got %T", mem)
	}

	cfg.Cache.Compress = true
	compressed := openCache(ctx, cfg)
	defer compressed.Close()
	if _, ok := compressed.(*cache.Compressed); !ok {
		t.Errorf("expected compressed cache, got %T", compressed)
	}
	cfg.Cache.Compress = false

	mr := miniredis.RunT(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.RedisAddr = mr.Addr()
	r := openCache(ctx, cfg)
	defer r.Close()
	if _, ok := r.(*cache.Redis); !ok {
		t.Errorf("expected redis cache, got %T", r)
	}

	cfg.Cache.RedisAddr = "127.0.0.1:1"
	if _, ok := openCache(ctx, cfg).(cache.Nop); !ok {
		t.Error("expected Nop cache when redis is unreachable")
	}
}

func TestOpenStoreOrUnavailable(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the database directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Store.Path = filepath.Join(blocker, "posts.db")

	store := openStoreOrUnavailable(context.Background(), cfg)
	defer store.Close()

	coord := newCoordinator(store, nil, cfg, nil)
	if _, err := coord.Autocomplete(context.Background(), "rust"); err == nil {
		t.Fatal("expected queries against an unavailable store to fail")
	}
}

func TestLoadAndSearch(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	n, total, err := loadFile(ctx, cfg, writePostsJSON(t, 25))
	if err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if n != 25 || total != 25 {
		t.Fatalf("expected 25 loaded and stored posts, got %d/%d", n, total)
	}

	// Loading again upserts.
	if _, total, err = loadFile(ctx, cfg, writePostsJSON(t, 25)); err != nil || total != 25 {
		t.Fatalf("reload: total=%d err=%v", total, err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	c := openCache(ctx, cfg)
	defer c.Close()
	coord := newCoordinator(store, c, cfg, nil)

	var out bytes.Buffer
	if err := searchPages(ctx, &out, coord, "rust", search.Cursor{}, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Rust question 1") || strings.Contains(out.String(), "Rust question 11") {
		t.Fatalf("unexpected first page:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "--cursor 2020-01-10T08:00:00.000") {
		t.Fatalf("expected next cursor in output:\n%s", out.String())
	}

	out.Reset()
	if err := searchPages(ctx, &out, coord, "rust", search.Cursor{}, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Rust question 25") || !strings.Contains(out.String(), "End of results") {
		t.Fatalf("expected every page with --all:\n%s", out.String())
	}

	out.Reset()
	if err := searchRanked(ctx, &out, coord, "lifetimes"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Relevance results") {
		t.Fatalf("unexpected ranked output:\n%s", out.String())
	}

	out.Reset()
	if err := printSuggestions(ctx, &out, coord, "ru"); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 10 {
		t.Fatalf("expected 10 suggestions, got %d:\n%s", len(lines), out.String())
	}
}

func TestLoadXMLDump(t *testing.T) {
	cfg := testConfig(t)
	dump := `<?xml version="1.0" encoding="utf-8"?>
<posts>
  <row Id="4" CreationDate="2008-07-31T21:42:52.667" Score="7" ViewCount="100" Body="&lt;p&gt;go channels&lt;/p&gt;" Title="Closing channels" Tags="&lt;go&gt;" />
</posts>`
	path := filepath.Join(t.TempDir(), "Posts.xml")
	if err := os.WriteFile(path, []byte(dump), 0644); err != nil {
		t.Fatal(err)
	}

	n, total, err := loadFile(context.Background(), cfg, path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || total != 1 {
		t.Fatalf("expected one post, got %d/%d", n, total)
	}
}

func TestLoadRequiresSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = config.StoreMongo

	if _, _, err := loadFile(context.Background(), cfg, writePostsJSON(t, 1)); err == nil {
		t.Fatal("expected load to refuse a mongo store")
	}
}

func TestInitConfig(t *testing.T) {
	testConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := initConfig(path, false); err != nil {
		t.Fatalf("initConfig: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Server.Listen != config.DefaultListen {
		t.Errorf("unexpected listen address %q", cfg.Server.Listen)
	}

	if err := initConfig(path, false); err == nil {
		t.Error("expected init to refuse to overwrite")
	}
	if err := initConfig(path, true); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestWatchConfigReloads(t *testing.T) {
	testConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("debug = false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchConfig(ctx, path, func(cfg *config.Config) { changes <- cfg })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("debug = true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if !cfg.Debug {
			t.Fatal("expected reloaded config to enable debug")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchConfig: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRestartNeeded(t *testing.T) {
	old := testConfig(t)
	updated := *old
	updated.Debug = !old.Debug
	if restartNeeded(old, &updated) {
		t.Error("debug changes apply without a restart")
	}

	updated.Search.PageSize = 50
	if !restartNeeded(old, &updated) {
		t.Error("page size changes need a restart")
	}
}

func TestMigrateStatusAndApply(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := runMigrations(ctx, &out, cfg, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Database does not exist") {
		t.Fatalf("unexpected output for a missing database:\n%s", out.String())
	}

	// An empty file is an empty SQLite database.
	if err := os.WriteFile(cfg.Store.Path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := runMigrations(ctx, &out, cfg, true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Applied migrations: 0", "Pending migrations: 2", "001: posts", "002: posts_fts"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in status:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := runMigrations(ctx, &out, cfg, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "All migrations completed successfully") {
		t.Fatalf("unexpected apply output:\n%s", out.String())
	}

	out.Reset()
	if err := runMigrations(ctx, &out, cfg, true); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Applied migrations: 2", "Pending migrations: 0", "database is up to date"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in status:\n%s", want, out.String())
		}
	}

	cfg.Store.Backend = config.StoreMongo
	if err := runMigrations(ctx, &out, cfg, true); err == nil {
		t.Fatal("expected an error for the mongo backend")
	}
}
