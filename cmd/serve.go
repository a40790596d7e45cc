package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rubiojr/postsearch/pkg/api"
	"github.com/rubiojr/postsearch/pkg/config"
	"github.com/rubiojr/postsearch/pkg/log"
	"github.com/rubiojr/postsearch/pkg/metrics"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP search API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (overrides server.listen)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"), c.Bool("debug"))
		},
	}
}

func serve(ctx context.Context, configPath, listen string, debugFlag bool) error {
	cfg, err := loadConfig(configPath, debugFlag)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}

	l := log.ForService("serve")

	m := metrics.New()
	store := openStoreOrUnavailable(ctx, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			l.Warnf("failed to close store: %v", err)
		}
	}()
	c := openCache(ctx, cfg)
	defer func() {
		if err := c.Close(); err != nil {
			l.Warnf("failed to close cache: %v", err)
		}
	}()

	apiServer := api.NewServer(newCoordinator(store, c, cfg, m), api.Options{
		Metrics:        m,
		RequestTimeout: cfg.Server.RequestTimeout.Duration,
	})

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Infof("listening on http://%s", cfg.Server.Listen)
		l.Infof("  GET /autocomplete?q=")
		l.Infof("  GET /search?q=&cursor=")
		l.Infof("  GET /search/ranked?q=")
		l.Infof("  GET /ws/autocomplete")
		l.Infof("  GET /health, /metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	watchCtx, stopWatching := context.WithCancel(ctx)
	defer stopWatching()
	go func() {
		err := watchConfig(watchCtx, configPath, func(newCfg *config.Config) {
			log.SetGlobalDebug(debugFlag || newCfg.Debug)
			l.Infof("configuration reloaded, debug=%t", debugFlag || newCfg.Debug)
			if restartNeeded(cfg, newCfg) {
				l.Warnf("server, store, cache and search settings apply after a restart")
			}
		})
		if err != nil {
			l.Warnf("config file watcher disabled: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCh:
	case <-ctx.Done():
	}

	l.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// restartNeeded reports whether settings other than debug changed.
func restartNeeded(old, updated *config.Config) bool {
	return old.Server != updated.Server ||
		old.Store != updated.Store ||
		old.Cache != updated.Cache ||
		old.Search != updated.Search
}
