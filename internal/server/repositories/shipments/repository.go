// Package shipments declares storage for the shipments that invoice lines bill.
package shipments

import (
	"context"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrAlreadyExists on a reused reference.
	Create(ctx context.Context, s *models.Shipment) (*models.Shipment, error)
	GetByID(ctx context.Context, id int64) (*models.Shipment, error)
	// List returns shipments in id order. A nil status lists all.
	List(ctx context.Context, status *models.ShipmentStatus) ([]*models.Shipment, error)
}
