// Package documents declares storage for uploaded document metadata.
package documents

import (
	"context"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id int64) (*models.Document, error)
}
