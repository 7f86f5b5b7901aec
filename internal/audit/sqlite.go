package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	job_id        TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	error         TEXT,
	client        TEXT NOT NULL,
	label         TEXT,
	path          TEXT,
	provider      TEXT,
	dispatched_at TEXT NOT NULL,
	resolved_at   TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	metadata      BLOB
);`

// SQLiteBackend is the default audit backend, a single local file via
// modernc.org/sqlite (a pure-Go driver, so the daemon stays CGO-free).
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (and creates if necessary) a sqlite database at
// dsn for audit records.
func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite audit db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, rec Record) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO audit_records
			(job_id, status, error, client, label, path, provider, dispatched_at, resolved_at, duration_ms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID, string(rec.Status), rec.Error, rec.Client, rec.Label, rec.Path, rec.Provider,
		rec.DispatchedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		rec.ResolvedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		rec.DurationMS, rec.Metadata)
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
