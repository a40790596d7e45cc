package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/postsearch/pkg/cache"
	"github.com/rubiojr/postsearch/pkg/config"
	"github.com/rubiojr/postsearch/pkg/log"
	"github.com/rubiojr/postsearch/pkg/metrics"
	"github.com/rubiojr/postsearch/pkg/search"
	"github.com/rubiojr/postsearch/pkg/storage"
)

const connectTimeout = 3 * time.Second

// loadConfig reads the configuration and applies the debug setting. The
// --debug flag wins over the file.
func loadConfig(configPath string, debugFlag bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.SetGlobalDebug(debugFlag || cfg.Debug)
	return cfg, nil
}

// openStore opens the configured document store.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	l := log.ForService("store")

	switch cfg.Store.Backend {
	case config.StoreMongo:
		m, err := storage.OpenMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, cfg.Store.MongoCollection)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := m.Ping(pingCtx); err != nil {
			// The driver keeps reconnecting; queries fail until it succeeds.
			l.Warnf("mongo at %s not reachable yet: %v", cfg.Store.MongoURI, err)
			return m, nil
		}
		if err := m.EnsureTextIndex(pingCtx); err != nil {
			l.Warnf("ensuring text index: %v", err)
		}
		l.Debugf("using mongo collection %s.%s", cfg.Store.MongoDatabase, cfg.Store.MongoCollection)
		return m, nil
	default:
		s, err := storage.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		l.Debugf("using sqlite database %s", cfg.Store.Path)
		return s, nil
	}
}

// openStoreOrUnavailable never fails: a store that cannot be opened is
// replaced by one that fails every query.
func openStoreOrUnavailable(ctx context.Context, cfg *config.Config) storage.Store {
	s, err := openStore(ctx, cfg)
	if err != nil {
		log.ForService("store").Errorf("opening %s store: %v", cfg.Store.Backend, err)
		return storage.Unavailable(err)
	}
	return s
}

// openCache builds the configured cache. An unreachable Redis is logged
// and replaced with cache.Nop.
func openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	l := log.ForService("cache")

	var c cache.Cache
	switch cfg.Cache.Backend {
	case config.CacheNone:
		l.Debugf("caching disabled")
		return cache.Nop{}
	case config.CacheRedis:
		r := cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			l.Warnf("redis at %s unreachable, caching disabled: %v", cfg.Cache.RedisAddr, err)
			_ = r.Close()
			return cache.Nop{}
		}
		l.Debugf("using redis at %s", cfg.Cache.RedisAddr)
		c = r
	default:
		c = cache.NewMemory(cfg.Cache.TTL.Duration)
	}

	if !cfg.Cache.Compress {
		return c
	}
	compressed, err := cache.NewCompressed(c)
	if err != nil {
		l.Warnf("compression unavailable, storing raw payloads: %v", err)
		return c
	}
	return compressed
}

func newCoordinator(store storage.Store, c cache.Cache, cfg *config.Config, m *metrics.Metrics) *search.Coordinator {
	return search.NewCoordinator(store, c, search.Options{
		TTL:             cfg.Cache.TTL.Duration,
		PageSize:        cfg.Search.PageSize,
		SuggestionLimit: cfg.Search.SuggestionLimit,
		Metrics:         m,
	})
}
