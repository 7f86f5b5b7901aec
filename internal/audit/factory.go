package audit

import (
	"context"
	"fmt"

	"github.com/midsbie/promptivd/internal/config"
)

// NewBackend selects and constructs a Backend per cfg.Driver. An empty
// driver name yields NoopBackend, used when audit logging is disabled
// entirely.
func NewBackend(ctx context.Context, cfg config.AuditConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "none":
		return NoopBackend{}, nil
	case "sqlite":
		return NewSQLiteBackend(cfg.DSN)
	case "postgres":
		return NewPostgresBackend(ctx, cfg.DSN)
	case "mysql", "mariadb":
		return NewMySQLBackend(cfg.DSN)
	case "mongodb":
		return NewMongoBackend(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported audit driver %q", cfg.Driver)
	}
}
