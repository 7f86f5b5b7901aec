package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	job_id        VARCHAR(64) PRIMARY KEY,
	status        VARCHAR(16) NOT NULL,
	error         TEXT,
	client        VARCHAR(255) NOT NULL,
	label         VARCHAR(255),
	path          VARCHAR(1024),
	provider      VARCHAR(255),
	dispatched_at DATETIME(3) NOT NULL,
	resolved_at   DATETIME(3) NOT NULL,
	duration_ms   BIGINT NOT NULL,
	metadata      BLOB
);`

// MySQLBackend persists audit records to MySQL or MariaDB.
type MySQLBackend struct {
	db *sql.DB
}

// NewMySQLBackend opens dsn (a go-sql-driver/mysql DSN) and ensures the
// audit table exists.
func NewMySQLBackend(dsn string) (*MySQLBackend, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql audit db: %w", err)
	}
	if _, err := db.Exec(mysqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &MySQLBackend{db: db}, nil
}

func (b *MySQLBackend) Write(ctx context.Context, rec Record) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO audit_records
			(job_id, status, error, client, label, path, provider, dispatched_at, resolved_at, duration_ms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status), error = VALUES(error),
			resolved_at = VALUES(resolved_at), duration_ms = VALUES(duration_ms), metadata = VALUES(metadata)`,
		rec.JobID, string(rec.Status), rec.Error, rec.Client, rec.Label, rec.Path, rec.Provider,
		rec.DispatchedAt, rec.ResolvedAt, rec.DurationMS, rec.Metadata)
	return err
}

func (b *MySQLBackend) Close() error {
	return b.db.Close()
}
