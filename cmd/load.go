package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rubiojr/postsearch/pkg/config"
	"github.com/rubiojr/postsearch/pkg/document"
	"github.com/rubiojr/postsearch/pkg/log"
	"github.com/rubiojr/postsearch/pkg/storage"
	"github.com/urfave/cli/v3"
)

const loadBatchSize = 500

// LoadCommand creates the load command
func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Load a posts.json array or a StackExchange Posts.xml dump into the SQLite store",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("a file to load is required")
			}
			cfg, err := loadConfig(c.String("config"), c.Bool("debug"))
			if err != nil {
				return err
			}

			n, total, err := loadFile(ctx, cfg, path)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d posts from %s (%d in store)\n", n, path, total)
			return nil
		},
	}
}

// readDump decodes path as XML when its extension is .xml and as a JSON
// array otherwise.
func readDump(path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return document.ReadXML(f)
	}
	return document.ReadJSON(f)
}

// loadFile inserts the posts in path and returns how many were read and
// how many the store holds afterwards.
func loadFile(ctx context.Context, cfg *config.Config, path string) (int, int, error) {
	if cfg.Store.Backend != config.StoreSQLite {
		return 0, 0, fmt.Errorf("load only supports the sqlite store, configured backend is %q", cfg.Store.Backend)
	}

	docs, err := readDump(path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	store, err := storage.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	l := log.ForService("load")
	for start := 0; start < len(docs); start += loadBatchSize {
		end := min(start+loadBatchSize, len(docs))
		if err := store.Insert(ctx, docs[start:end]); err != nil {
			return start, 0, err
		}
		l.Debugf("inserted %d/%d posts", end, len(docs))
	}

	total, err := store.Count(ctx)
	if err != nil {
		return len(docs), 0, err
	}
	return len(docs), total, nil
}
