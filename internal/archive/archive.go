// Package archive provides SQLite-backed storage of crawl history.
//
// The archive is separate from the checkpoint: the checkpoint is the
// crash-recovery state of one run, while the archive accumulates page
// records across runs so earlier mirrors can be inspected and compared.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB stores page records in a SQLite database file.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive database under dbDir.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "mdcrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check archive path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// SQLite supports a single writer; don't pool connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Best effort cleanup
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := a.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return a, nil
}

// Close closes the database connection.
func (a *DB) Close() error {
	return a.db.Close()
}

// Path returns the database file location.
func (a *DB) Path() string {
	return a.dbPath
}

func (a *DB) createTables() error {
	schema := `
	-- One row per fetched page, upserted on re-crawl.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		host TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		content_hash TEXT,
		document_path TEXT,
		UNIQUE(url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_host ON pages(host);
	CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
	`

	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord is one archived page fetch.
type PageRecord struct {
	ID           int64
	URL          string
	Host         string
	FetchedAt    time.Time
	StatusCode   int
	ContentType  string
	Title        string
	ContentHash  string
	DocumentPath string
}

// SavePage inserts or updates the record for a URL.
func (a *DB) SavePage(ctx context.Context, rec *PageRecord) error {
	query := `
	INSERT INTO pages (url, host, status_code, content_type, title, content_hash, document_path)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		content_hash = excluded.content_hash,
		document_path = excluded.document_path,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := a.db.ExecContext(ctx, query,
		rec.URL, rec.Host, rec.StatusCode, rec.ContentType,
		rec.Title, rec.ContentHash, rec.DocumentPath,
	)
	if err != nil {
		return fmt.Errorf("save page record: %w", err)
	}
	return nil
}

// GetPage retrieves the record for a URL. Returns nil when the URL has
// never been archived.
func (a *DB) GetPage(ctx context.Context, url string) (*PageRecord, error) {
	query := `
	SELECT id, url, host, fetched_at, status_code, content_type, title, content_hash, document_path
	FROM pages WHERE url = ?
	`

	var rec PageRecord
	var fetchedAt string
	err := a.db.QueryRowContext(ctx, query, url).Scan(
		&rec.ID, &rec.URL, &rec.Host, &fetchedAt, &rec.StatusCode,
		&rec.ContentType, &rec.Title, &rec.ContentHash, &rec.DocumentPath,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page record: %w", err)
	}

	rec.FetchedAt = parseTimestamp(fetchedAt)
	return &rec, nil
}

// ListPages returns all records for a host, most recent first.
func (a *DB) ListPages(ctx context.Context, host string) ([]PageRecord, error) {
	query := `
	SELECT id, url, host, fetched_at, status_code, content_type, title, content_hash, document_path
	FROM pages WHERE host = ?
	ORDER BY fetched_at DESC, id DESC
	`

	rows, err := a.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("list page records: %w", err)
	}
	defer rows.Close()

	var results []PageRecord
	for rows.Next() {
		var rec PageRecord
		var fetchedAt string
		if err := rows.Scan(
			&rec.ID, &rec.URL, &rec.Host, &fetchedAt, &rec.StatusCode,
			&rec.ContentType, &rec.Title, &rec.ContentHash, &rec.DocumentPath,
		); err != nil {
			return nil, fmt.Errorf("scan page record: %w", err)
		}
		rec.FetchedAt = parseTimestamp(fetchedAt)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats SQLite may return,
// most specific first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a SQLite timestamp string, returning zero time
// when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
