package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// KV is a durable string key-value store backed by a single SQLite file.
// Entries are partitioned by origin so sessions for different backends never mix.
type KV struct {
	Path string
}

// OpenDefaultKV returns the KV at ~/.freamarket/state.sqlite (or FREAMARKET_CONFIG_DIR).
func OpenDefaultKV() (KV, error) {
	p, err := StatePath()
	if err != nil {
		return KV{}, err
	}
	return KV{Path: p}, nil
}

func (kv KV) openSQLite(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(kv.Path) == "" {
		return nil, errors.New("kv: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(kv.Path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", kv.Path)
	if err != nil {
		return nil, err
	}
	// CLI invocations and the TUI may touch the file at the same time.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateKV(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateKV(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			origin TEXT NOT NULL,
			k TEXT NOT NULL,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY(origin, k)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value for key under origin. ok is false when the entry is absent.
func (kv KV) Get(ctx context.Context, origin, key string) (value string, ok bool, err error) {
	db, err := kv.openSQLite(ctx)
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	err = db.QueryRowContext(ctx, `SELECT v FROM kv WHERE origin = ? AND k = ?`, origin, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (kv KV) Set(ctx context.Context, origin, key, value string) error {
	db, err := kv.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(origin, k, v, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		origin, key, value, time.Now().UTC().UnixMilli())
	return err
}

// Delete removes key under origin. Deleting a missing key is not an error.
func (kv KV) Delete(ctx context.Context, origin, key string) error {
	db, err := kv.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `DELETE FROM kv WHERE origin = ? AND k = ?`, origin, key)
	return err
}

// Scope binds the store to one origin.
func (kv KV) Scope(origin string) Bucket {
	return Bucket{kv: kv, origin: origin}
}

// Bucket is a KV view limited to a single origin.
type Bucket struct {
	kv     KV
	origin string
}

func (b Bucket) Get(ctx context.Context, key string) (string, bool, error) {
	return b.kv.Get(ctx, b.origin, key)
}

func (b Bucket) Set(ctx context.Context, key, value string) error {
	return b.kv.Set(ctx, b.origin, key, value)
}

func (b Bucket) Delete(ctx context.Context, key string) error {
	return b.kv.Delete(ctx, b.origin, key)
}
