package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteBackend stores key/value pairs in a single SQLite table. It holds a
// file lock on the data directory so two processes never interleave their
// read-modify-write cycles over the same database.
type SQLiteBackend struct {
	conn *sql.DB
	lock *flock.Flock
}

var _ Backend = (*SQLiteBackend)(nil)

// OpenSQLite opens (creating if needed) the key-value database at path and
// runs schema migrations.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data directory lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	connString := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=10000", path)
	conn, err := sql.Open("sqlite3", connString)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single local writer; a small pool is plenty.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(15 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		lock.Unlock()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runSchemaMigrations(conn); err != nil {
		conn.Close()
		lock.Unlock()
		return nil, fmt.Errorf("run schema migrations: %w", err)
	}

	return &SQLiteBackend{conn: conn, lock: lock}, nil
}

func runSchemaMigrations(conn *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Read(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.conn.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %q: %w", key, err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, key, value string) error {
	_, err := b.conn.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.conn.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) DeleteAll(ctx context.Context) error {
	if _, err := b.conn.ExecContext(ctx, `DELETE FROM kv_entries`); err != nil {
		return fmt.Errorf("delete all keys: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.conn.QueryContext(ctx, `SELECT key FROM kv_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.conn.PingContext(ctx)
}

// Close releases the database connection and the directory lock.
func (b *SQLiteBackend) Close() error {
	err := b.conn.Close()
	if b.lock != nil {
		if unlockErr := b.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}
