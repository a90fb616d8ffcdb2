package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	_ "modernc.org/sqlite"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(collection, updated_at)`,
}

// OpenSQLite opens the database at path, or an in-memory one for ":memory:",
// and applies the schema.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

type sqliteBackend struct {
	db     DBTX
	logger *logger.Logger
}

// NewSQLiteStore keeps every collection in one documents table.
func NewSQLiteStore(db DBTX, logger *logger.Logger, m *metrics.Metrics) *DocumentStore {
	return newDocumentStore(&sqliteBackend{db: db, logger: logger}, m)
}

func (b *sqliteBackend) name() string { return "sqlite" }

func (b *sqliteBackend) list(ctx context.Context, collection string) ([][]byte, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, []byte(data))
	}
	return out, rows.Err()
}

func (b *sqliteBackend) get(ctx context.Context, collection, id string) ([]byte, error) {
	var data string
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return []byte(data), nil
}

func (b *sqliteBackend) put(ctx context.Context, collection, id string, data []byte, mode putMode) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var (
		res sql.Result
		err error
	)
	switch mode {
	case putCreate:
		res, err = b.db.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(collection, id) DO NOTHING`,
			collection, id, string(data), now)
	case putUpdate:
		res, err = b.db.ExecContext(ctx,
			`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
			string(data), now, collection, id)
	default:
		res, err = b.db.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			collection, id, string(data), now)
	}
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		switch mode {
		case putCreate:
			return domain.ErrAlreadyExists
		case putUpdate:
			return domain.ErrNotFound
		}
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"collection": collection,
		"id":         id,
	}).Debug("Stored document in sqlite")
	return nil
}

func (b *sqliteBackend) delete(ctx context.Context, collection, id string) error {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
