package documents

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

func (r *PostgresRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	query := `
		INSERT INTO documents (filename, content_type, size_bytes, storage_key, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING document_id
	`
	err := r.db.QueryRowContext(ctx, query,
		d.Filename, d.ContentType, d.Size, d.StorageKey, d.UploadedBy, d.UploadedAt).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := `
		SELECT document_id, filename, content_type, size_bytes, storage_key, uploaded_by, uploaded_at
		FROM documents
		WHERE document_id = $1
	`
	d := &models.Document{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&d.ID, &d.Filename, &d.ContentType, &d.Size, &d.StorageKey, &d.UploadedBy, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}
