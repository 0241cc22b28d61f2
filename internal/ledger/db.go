// Package ledger records which PDFs have already been extracted, keyed by
// content hash, in a local SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// Config holds database configuration options
type Config struct {
	Path            string        // Database file path
	MaxOpenConns    int           // Maximum number of open connections
	MaxIdleConns    int           // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	BusyTimeout     time.Duration // SQLite busy timeout
}

// DefaultConfig returns defaults suited to a single CLI process with a few
// concurrent extraction workers.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// Open opens the database at path with WAL mode and foreign keys enabled
// and applies pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	return OpenWithConfig(ctx, DefaultConfig(path))
}

// OpenWithConfig is Open with explicit pool settings.
func OpenWithConfig(ctx context.Context, cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to create ledger directory", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to open ledger", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to ping ledger", err)
	}

	db := &DB{conn: conn, path: cfg.Path}

	var journalMode string
	if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		conn.Close()
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to verify journal mode", err)
	}
	if journalMode != "wal" {
		conn.Close()
		return nil, types.NewError(types.DB_OPEN_FAILED, fmt.Sprintf("WAL mode not enabled (got %s)", journalMode))
	}

	if err := migrate(ctx, db); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Health pings the database and runs a trivial query.
func (db *DB) Health(ctx context.Context) types.HealthStatus {
	start := time.Now()
	if err := db.conn.PingContext(ctx); err != nil {
		return types.Unhealthy("ping failed: " + err.Error()).For("ledger")
	}

	var result int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return types.Unhealthy("query failed: " + err.Error()).For("ledger")
	}

	status := types.Healthy("ledger reachable").For("ledger")
	status.Latency = time.Since(start)
	return status
}

// WithTx executes fn within a transaction, rolling back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
