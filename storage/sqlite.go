package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteDialect = sqlDialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS ul_entries (
        namespace TEXT NOT NULL,
        id BLOB NOT NULL,
        data BLOB NOT NULL,
        updated_at INTEGER NOT NULL,
        PRIMARY KEY (namespace, id)
)`,
	upsert: `INSERT INTO ul_entries (namespace, id, data, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (namespace, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
}

// SQLiteBackend stores entries in a local SQLite database file.
type SQLiteBackend struct {
	*sqlBackend
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(path string, log *slog.Logger) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	inner, err := newSQLBackend(db, sqliteDialect, filepath.Base(cleanPath), "sqlite://"+cleanPath, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{sqlBackend: inner}, nil
}
