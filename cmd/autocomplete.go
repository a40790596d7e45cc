package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/postsearch/pkg/search"
	"github.com/urfave/cli/v3"
)

// AutocompleteCommand creates the autocomplete command
func AutocompleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "autocomplete",
		Usage:     "Suggest post titles for a partial query",
		ArgsUsage: "<query>",
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return fmt.Errorf("a query is required")
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

			return printSuggestions(ctx, os.Stdout, newCoordinator(store, cache, cfg, nil), query)
		},
	}
}

func printSuggestions(ctx context.Context, w io.Writer, coordinator *search.Coordinator, query string) error {
	titles, err := coordinator.Autocomplete(ctx, query)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No suggestions"))
		return nil
	}
	for _, t := range titles {
		fmt.Fprintln(w, t)
	}
	return nil
}
