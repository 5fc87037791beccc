package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type Item struct {
	ShipmentID  *int64          `json:"shipmentId,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// DraftRequest is the body of invoice create and update calls. ClientID is
// only read on create, Version only on update.
type DraftRequest struct {
	ClientID    int64      `json:"clientId,omitempty"`
	Version     *int64     `json:"version,omitempty"`
	InvoiceDate time.Time  `json:"invoiceDate"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Items       []Item     `json:"items"`
}

type InvoiceItem struct {
	Position    int             `json:"position"`
	ShipmentID  *int64          `json:"shipmentId,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type Invoice struct {
	ID          int64           `json:"id"`
	ClientID    int64           `json:"clientId"`
	InvoiceDate time.Time       `json:"invoiceDate"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Version     int64           `json:"version"`
	FiscalFolio *string         `json:"fiscalFolio,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	UpdatedBy   *string         `json:"updatedBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	Items       []InvoiceItem   `json:"items,omitempty"`
}

type HistoryEntry struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoiceId"`
	Version       int64           `json:"version"`
	ChangedBy     string          `json:"changedBy"`
	ChangedAt     time.Time       `json:"changedAt"`
	ChangeSummary string          `json:"changeSummary"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

type Shipment struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	Locked    bool      `json:"locked"`
	Invoiced  bool      `json:"invoiced"`
	CreatedAt time.Time `json:"createdAt"`
}

type Document struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
