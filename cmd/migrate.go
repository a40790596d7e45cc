package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/postsearch/pkg/config"
	"github.com/rubiojr/postsearch/pkg/db"
	"github.com/urfave/cli/v3"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations to the SQLite store",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("config"), c.Bool("debug"))
			if err != nil {
				return err
			}
			return runMigrations(ctx, os.Stdout, cfg, c.Bool("status"))
		},
	}
}

// runMigrations reports or applies the migrations of the configured SQLite
// database. Opening the store applies migrations, so the database is
// opened directly here.
func runMigrations(ctx context.Context, w io.Writer, cfg *config.Config, statusOnly bool) error {
	if cfg.Store.Backend != config.StoreSQLite {
		return fmt.Errorf("migrations only apply to the sqlite store, configured backend is %q", cfg.Store.Backend)
	}

	if _, err := os.Stat(cfg.Store.Path); os.IsNotExist(err) {
		fmt.Fprintf(w, "Database does not exist, will be created on first use: %s\n", cfg.Store.Path)
		return nil
	}

	sqlDB, err := sql.Open("sqlite3", cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	manager := db.NewMigrationManager(sqlDB)
	if statusOnly {
		return showMigrationStatus(ctx, w, manager)
	}

	if err := manager.ApplyPendingMigrations(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	fmt.Fprintln(w, "All migrations completed successfully")
	return nil
}

func showMigrationStatus(ctx context.Context, w io.Writer, manager *db.MigrationManager) error {
	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Applied migrations: %d\n", len(status.Applied))
	for _, migration := range status.Applied {
		appliedTime := "unknown"
		if migration.AppliedAt != nil {
			appliedTime = migration.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "  ✓ %03d: %s (applied: %s)\n", migration.Version, migration.Name, appliedTime)
	}

	fmt.Fprintf(w, "Pending migrations: %d\n", len(status.Pending))
	for _, migration := range status.Pending {
		fmt.Fprintf(w, "  • %03d: %s\n", migration.Version, migration.Name)
	}
	if len(status.Pending) == 0 {
		fmt.Fprintln(w, "  (none - database is up to date)")
	}
	return nil
}
