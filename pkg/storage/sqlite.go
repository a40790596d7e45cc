package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/postsearch/pkg/db"
	"github.com/rubiojr/postsearch/pkg/document"
	"github.com/rubiojr/postsearch/pkg/log"
)

var postColumns = []string{
	"posts.id",
	"posts.creationdate",
	"posts.score",
	"posts.viewcount",
	"posts.body",
	"posts.title",
	"posts.tags",
}

// SQLite is a Store backed by an SQLite database with an FTS5 index.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath and makes
// sure the schema exists.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA mmap_size = 268435456", // 256MB mmap
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	s := &SQLite{db: sqlDB}
	if err := s.InitSchema(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema applies any pending schema migrations: the posts table and
// its FTS index.
func (s *SQLite) InitSchema(ctx context.Context) error {
	if err := db.InitializeDatabase(ctx, s.db); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Insert upserts docs by id and keeps the FTS index in sync. It exists to
// load fixtures and dumps; the search path never writes.
func (s *SQLite) Insert(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				log.ForService("storage").Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (id, creationdate, score, viewcount, body, title, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			creationdate = excluded.creationdate,
			score = excluded.score,
			viewcount = excluded.viewcount,
			body = excluded.body,
			title = excluded.title,
			tags = excluded.tags
		RETURNING rowid
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO posts_fts (rowid, title, body, tags)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS statement: %w", err)
	}
	defer ftsStmt.Close()

	for _, d := range docs {
		var rowid int64
		err := stmt.QueryRowContext(ctx, d.ID, d.CreationDate, d.Score, d.ViewCount, d.Body, d.Title, d.Tags).Scan(&rowid)
		if err != nil {
			return fmt.Errorf("inserting post %s: %w", d.ID, err)
		}
		if _, err := ftsStmt.ExecContext(ctx, rowid, d.Title, d.Body, d.Tags); err != nil {
			return fmt.Errorf("indexing post %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	committed = true
	return nil
}

// Count returns the number of stored posts.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

func (s *SQLite) buildQuery(q Query) (sq.SelectBuilder, bool) {
	match := matchExpression(q.Text, q.Prefix)
	if match == "" {
		return sq.SelectBuilder{}, false
	}

	b := sq.Select(postColumns...).
		From("posts").
		Join("posts_fts ON posts.rowid = posts_fts.rowid").
		Where("posts_fts MATCH ?", match)

	if q.After != "" {
		b = b.Where(sq.Gt{"posts.creationdate": q.After})
	}

	switch q.Order {
	case OrderCreated:
		b = b.OrderBy("posts.creationdate ASC", "posts.id ASC")
	default:
		b = b.OrderBy("bm25(posts_fts)", "posts.creationdate ASC")
	}

	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b, true
}

func (s *SQLite) Search(ctx context.Context, q Query) ([]document.Document, error) {
	b, ok := s.buildQuery(q)
	if !ok {
		return []document.Document{}, nil
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	docs := []document.Document{}
	for rows.Next() {
		var d document.Document
		if err := rows.Scan(&d.ID, &d.CreationDate, &d.Score, &d.ViewCount, &d.Body, &d.Title, &d.Tags); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return docs, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
