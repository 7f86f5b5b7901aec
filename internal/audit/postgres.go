package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	job_id        TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	error         TEXT,
	client        TEXT NOT NULL,
	label         TEXT,
	path          TEXT,
	provider      TEXT,
	dispatched_at TIMESTAMPTZ NOT NULL,
	resolved_at   TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL,
	metadata      BYTEA
);`

// PostgresBackend persists audit records to a Postgres database via pgx's
// pooled connection.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to dsn and ensures the audit table exists.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres audit db: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Write(ctx context.Context, rec Record) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO audit_records
			(job_id, status, error, client, label, path, provider, dispatched_at, resolved_at, duration_ms, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status, error = EXCLUDED.error, resolved_at = EXCLUDED.resolved_at,
			duration_ms = EXCLUDED.duration_ms, metadata = EXCLUDED.metadata`,
		rec.JobID, string(rec.Status), rec.Error, rec.Client, rec.Label, rec.Path, rec.Provider,
		rec.DispatchedAt, rec.ResolvedAt, rec.DurationMS, rec.Metadata)
	return err
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
