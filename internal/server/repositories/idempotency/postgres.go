package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM idempotency_keys WHERE service_key = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Record(ctx context.Context, key string, at time.Time) error {
	query := `
		INSERT INTO idempotency_keys (service_key, created_at)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, key, at); err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
