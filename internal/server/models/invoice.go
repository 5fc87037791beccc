// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice. Transitions only move
// forward: DRAFT -> ISSUED -> PAID.
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "DRAFT"
	InvoiceIssued InvoiceStatus = "ISSUED"
	InvoicePaid   InvoiceStatus = "PAID"
)

// InitialInvoiceVersion is the version of a freshly created draft.
const InitialInvoiceVersion int64 = 0

// ParseInvoiceStatus validates a status coming from the outside world.
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	switch st := InvoiceStatus(s); st {
	case InvoiceDraft, InvoiceIssued, InvoicePaid:
		return st, true
	}
	return "", false
}

// Invoice is the invoice header together with its owned line items.
type Invoice struct {
	ID          int64           `json:"id"`
	ClientID    int64           `json:"client_id"`
	InvoiceDate time.Time       `json:"invoice_date"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Status      InvoiceStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Version     int64           `json:"version"`
	FiscalFolio *string         `json:"fiscal_folio,omitempty"`
	CreatedBy   string          `json:"created_by"`
	UpdatedBy   *string         `json:"updated_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
	Items       []*InvoiceItem  `json:"items"`
}

// InvoiceItem is one line of an invoice. Items have no identity outside
// their invoice and are replaced wholesale on every draft edit.
type InvoiceItem struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Position    int             `json:"position"`
	ShipmentID  *int64          `json:"shipment_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceHistory is an immutable snapshot written once per successful mutation.
type InvoiceHistory struct {
	ID              int64     `json:"id"`
	InvoiceID       int64     `json:"invoice_id"`
	Version         int64     `json:"version"`
	ChangedBy       string    `json:"changed_by"`
	ChangedAt       time.Time `json:"changed_at"`
	ChangeSummary   string    `json:"change_summary"`
	SnapshotPayload []byte    `json:"snapshot_payload"`
}

// IdempotencyKey marks an operation attempt as processed. Only its existence
// matters; CreatedAt is informational.
type IdempotencyKey struct {
	ID         int64
	ServiceKey string
	CreatedAt  time.Time
}
