// Package history declares the append-only store of invoice snapshots.
package history

import (
	"context"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type Repository interface {
	// Record appends a snapshot and fills its ID. Rows are never updated.
	Record(ctx context.Context, h *models.InvoiceHistory) error
	// ListByInvoice returns snapshots of one invoice, newest version first.
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.InvoiceHistory, error)
}
