package rendercache

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// SQLiteCache implements Cache using SQLite.
type SQLiteCache struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (creating if needed) a cache database.
// Use ":memory:" for an in-memory cache.
func OpenSQLite(dbPath string) (*SQLiteCache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryCache, "create cache directory").
				WithContext("path", dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryCache, "open sqlite database").
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	c := &SQLiteCache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryCache, "initialize cache schema").
			WithContext("path", dbPath).
			Build()
	}
	return c, nil
}

func (c *SQLiteCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rendered (
		slug TEXT NOT NULL,
		base_path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		html TEXT NOT NULL,
		read_time TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (slug, base_path)
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the entry for key. An entry for an older fingerprint of the
// same post is a miss.
func (c *SQLiteCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		e       Entry
		created int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT html, read_time, created_at FROM rendered WHERE slug = ? AND base_path = ? AND fingerprint = ?",
		key.Slug, key.BasePath, key.Fingerprint,
	).Scan(&e.HTML, &e.ReadTime, &created)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.WrapError(err, errors.CategoryCache, "query render cache").
			WithSlug(key.Slug).
			Warning().
			Build()
	}
	e.CreatedAt = time.Unix(created, 0)
	return e, true, nil
}

// Put stores entry, replacing any rendering of an older version of the post.
func (c *SQLiteCache) Put(ctx context.Context, key Key, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO rendered (slug, base_path, fingerprint, html, read_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug, base_path) DO UPDATE SET
		   fingerprint = excluded.fingerprint,
		   html = excluded.html,
		   read_time = excluded.read_time,
		   created_at = excluded.created_at`,
		key.Slug, key.BasePath, key.Fingerprint, entry.HTML, entry.ReadTime, created.Unix(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryCache, "store render cache entry").
			WithSlug(key.Slug).
			Warning().
			Build()
	}
	return nil
}

// Len reports the number of cached renderings.
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rendered").Scan(&n)
	return n, err
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
