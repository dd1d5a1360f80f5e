package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/unified-ledger/interfaces"
)

// sqlDialect holds the statements that differ between SQL engines.
type sqlDialect struct {
	name   string
	schema string
	upsert string
}

// sqlBackend is the shared implementation behind the MySQL and SQLite backends.
// Rows are keyed by (namespace, id) and written with a single upsert statement.
type sqlBackend struct {
	db          *sql.DB
	dialect     sqlDialect
	label       string
	log         *slog.Logger
	locationURI string
}

func newSQLBackend(db *sql.DB, dialect sqlDialect, label, uri string, log *slog.Logger) (*sqlBackend, error) {
	if log == nil {
		log = slog.Default()
	}
	b := &sqlBackend{
		db:          db,
		dialect:     dialect,
		label:       label,
		log:         log,
		locationURI: uri,
	}
	if err := b.initSchema(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *sqlBackend) initSchema() error {
	if _, err := b.db.Exec(b.dialect.schema); err != nil {
		return fmt.Errorf("failed to initialize %s schema: %w", b.dialect.name, err)
	}
	return nil
}

func (b *sqlBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	const stmt = `SELECT data FROM ul_entries WHERE namespace = ? AND id = ?`

	var data []byte
	err := b.db.QueryRowContext(ctx, stmt, ns.String(), id[:]).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		b.log.Error("Failed to query entry",
			slog.String("backend", b.Name()),
			slog.String("contentID", id.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (b *sqlBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := b.db.ExecContext(ctx, b.dialect.upsert, ns.String(), id[:], data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: failed to upsert entry: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

func (b *sqlBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	const stmt = `DELETE FROM ul_entries WHERE namespace = ? AND id = ?`
	if _, err := b.db.ExecContext(ctx, stmt, ns.String(), id[:]); err != nil {
		return fmt.Errorf("%w: failed to delete entry: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

func (b *sqlBackend) Available(ctx context.Context) bool {
	if err := b.db.PingContext(ctx); err != nil {
		b.log.Debug("SQL backend unavailable",
			slog.String("backend", b.Name()),
			"err", err)
		return false
	}
	return true
}

func (b *sqlBackend) Name() string {
	return fmt.Sprintf("%s-%s", b.dialect.name, b.label)
}

func (b *sqlBackend) LocationURI() string {
	return b.locationURI
}

// Close releases the database handle.
func (b *sqlBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
