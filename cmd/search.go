package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/postsearch/pkg/search"
	"github.com/rubiojr/postsearch/pkg/storage"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search posts",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cursor",
				Usage: "Return the page after this cursor",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Follow cursors until the last page",
			},
			&cli.BoolFlag{
				Name:  "ranked",
				Usage: "Sort by relevance instead of creation date (not paginated)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return fmt.Errorf("a search query is required")
			}

			cfg, err := loadConfig(c.String("config"), c.Bool("debug"))
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()
			cache := openCache(ctx, cfg)
			defer cache.Close()

			coordinator := newCoordinator(store, cache, cfg, nil)
			if c.Bool("ranked") {
				return searchRanked(ctx, os.Stdout, coordinator, query)
			}
			return searchPages(ctx, os.Stdout, coordinator, query, search.ParseCursor(c.String("cursor")), c.Bool("all"))
		},
	}
}

func searchRanked(ctx context.Context, w io.Writer, coordinator *search.Coordinator, query string) error {
	docs, err := coordinator.Rank(ctx, query)
	if err != nil {
		return err
	}
	renderHeader(w, query, storage.OrderRelevance.String())
	renderDocs(w, docs)
	return nil
}

// searchPages prints one page, or every page from cursor on when all is set.
func searchPages(ctx context.Context, w io.Writer, coordinator *search.Coordinator, query string, cursor search.Cursor, all bool) error {
	renderHeader(w, query, storage.OrderCreated.String())

	for {
		page, err := coordinator.Search(ctx, query, cursor)
		if err != nil {
			return err
		}
		renderDocs(w, page.Results)

		next := page.Cursor
		if page.Cached {
			// Cached pages carry no cursor; derive it to keep walking.
			next = search.NextCursor(page.Results, coordinator.PageSize())
		}
		if !all || next.IsZero() {
			renderCursor(w, next.String())
			return nil
		}
		cursor = next
	}
}
