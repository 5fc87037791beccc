// Package invoices declares the storage contract for invoice headers and
// their line items.
package invoices

import (
	"context"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

// Repository persists invoices. Items are always written and read together
// with their header; they are never addressed individually.
type Repository interface {
	// Create inserts the header and its items and fills the generated ids.
	Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)

	// GetByID returns the invoice with items ordered by position, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)

	// List returns invoice headers, newest first. A nil status lists all.
	List(ctx context.Context, status *models.InvoiceStatus) ([]*models.Invoice, error)

	// UpdateDraft overwrites the editable header fields and bumps the version,
	// provided the stored row is still a DRAFT at expectedVersion. Otherwise
	// it returns common.ErrVersionConflict.
	UpdateDraft(ctx context.Context, inv *models.Invoice, expectedVersion int64) error

	// MarkIssued moves a DRAFT at expectedVersion to ISSUED. A row that has
	// moved on yields common.ErrVersionConflict.
	MarkIssued(ctx context.Context, id, expectedVersion int64, folio, actor string, at time.Time) error

	// ReplaceItems deletes all items of the invoice and inserts the given ones.
	ReplaceItems(ctx context.Context, invoiceID int64, items []*models.InvoiceItem) error

	// InvoicedShipments returns which of shipmentIDs already appear on an
	// invoice other than excludeInvoiceID (0 excludes nothing).
	InvoicedShipments(ctx context.Context, shipmentIDs []int64, excludeInvoiceID int64) ([]int64, error)
}
