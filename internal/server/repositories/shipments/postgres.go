package shipments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Shipment) (*models.Shipment, error) {
	query := `
		INSERT INTO shipments (reference, status)
		VALUES ($1, $2)
		RETURNING shipment_id, locked, invoiced, created_at
	`
	err := r.db.QueryRowContext(ctx, query, s.Reference, s.Status).
		Scan(&s.ID, &s.Locked, &s.Invoiced, &s.CreatedAt)
	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Shipment, error) {
	query := `
		SELECT shipment_id, reference, status, locked, invoiced, created_at
		FROM shipments
		WHERE shipment_id = $1
	`
	s := &models.Shipment{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.Reference, &s.Status, &s.Locked, &s.Invoiced, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, status *models.ShipmentStatus) ([]*models.Shipment, error) {
	query := `
		SELECT shipment_id, reference, status, locked, invoiced, created_at
		FROM shipments
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY shipment_id
	`
	var arg any
	if status != nil {
		arg = string(*status)
	}
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select shipments: %w", err)
	}
	defer rows.Close()

	result := []*models.Shipment{}
	for rows.Next() {
		var s models.Shipment
		if err := rows.Scan(&s.ID, &s.Reference, &s.Status, &s.Locked, &s.Invoiced, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
