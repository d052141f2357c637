// Package sqlite implements the repository interfaces on top of SQLite.
//
// DRIVER:
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed. It registers itself with database/sql under the name "sqlite".
//
// CONNECTION SETTINGS:
// Per-connection settings are passed as DSN query parameters, which the
// driver applies to every connection it opens:
//   - foreign_keys(1)   enforce REFERENCES and ON DELETE CASCADE
//   - busy_timeout(ms)  wait for a competing writer instead of failing at once
//   - journal_mode(WAL) readers do not block the writer (file databases only)
//   - _txlock=immediate every transaction takes the write lock at BEGIN, so
//     two read-then-write transactions can never deadlock on lock upgrade
//
// QUERIES:
// SQL is assembled with squirrel and executed through querier(ctx), which
// returns the transaction stored in ctx by RunInTx or, outside a
// transaction, the pool itself.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sb builds SQLite statements with "?" placeholders.
var sb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const memoryPath = ":memory:"

// Options configures New. Zero values fall back to sensible defaults.
type Options struct {
	Path        string
	BusyTimeout time.Duration
	Retry       RetryConfig
	Logger      *slog.Logger
}

// DB wraps a sql.DB connection pool and implements every repository
// interface plus repository.TxManager.
type DB struct {
	conn   *sql.DB
	retry  RetryConfig
	logger *slog.Logger
}

// New opens the database, applies pending migrations and returns a ready DB.
//
// Path examples:
//   - "data/devfolio.db" → file database; the parent directory is created
//   - ":memory:"         → private in-memory database (tests)
//
// An in-memory database exists per connection, so the pool is pinned to a
// single connection for it. All repository methods route through the
// transaction in ctx, so a transaction never waits on its own pool slot.
func New(opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryConfig
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	inMemory := opts.Path == memoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dsn(opts.Path, opts.BusyTimeout, inMemory))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if inMemory {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, retry: opts.Retry, logger: opts.Logger}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(path string, busy time.Duration, inMemory bool) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
		"_txlock=immediate",
		"_time_format=sqlite",
	}
	if !inMemory {
		params = append(params, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}
	return path + "?" + strings.Join(params, "&")
}

// migrate applies the embedded goose migrations.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		db.logger.Debug("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}

	return nil
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
