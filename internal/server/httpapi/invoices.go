package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type itemRequest struct {
	ShipmentID  *int64          `json:"shipmentId"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type createInvoiceRequest struct {
	ClientID    int64         `json:"clientId"`
	InvoiceDate time.Time     `json:"invoiceDate"`
	DueDate     *time.Time    `json:"dueDate"`
	Items       []itemRequest `json:"items"`
}

type updateInvoiceRequest struct {
	Version     *int64        `json:"version" binding:"required"`
	InvoiceDate time.Time     `json:"invoiceDate"`
	DueDate     *time.Time    `json:"dueDate"`
	Items       []itemRequest `json:"items"`
}

type issueInvoiceRequest struct {
	RequestID string `json:"requestId"`
}

type invoiceItemResponse struct {
	Position    int    `json:"position"`
	ShipmentID  *int64 `json:"shipmentId,omitempty"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
}

type invoiceResponse struct {
	ID          int64                 `json:"id"`
	ClientID    int64                 `json:"clientId"`
	InvoiceDate time.Time             `json:"invoiceDate"`
	DueDate     *time.Time            `json:"dueDate,omitempty"`
	Status      models.InvoiceStatus  `json:"status"`
	TotalAmount string                `json:"totalAmount"`
	Version     int64                 `json:"version"`
	FiscalFolio *string               `json:"fiscalFolio,omitempty"`
	CreatedBy   string                `json:"createdBy"`
	UpdatedBy   *string               `json:"updatedBy,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   *time.Time            `json:"updatedAt,omitempty"`
	Items       []invoiceItemResponse `json:"items,omitempty"`
}

type historyResponse struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoiceId"`
	Version       int64           `json:"version"`
	ChangedBy     string          `json:"changedBy"`
	ChangedAt     time.Time       `json:"changedAt"`
	ChangeSummary string          `json:"changeSummary"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(common.MoneyScale)
}

func toInvoiceResponse(inv *models.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:          inv.ID,
		ClientID:    inv.ClientID,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Status:      inv.Status,
		TotalAmount: money(inv.TotalAmount),
		Version:     inv.Version,
		FiscalFolio: inv.FiscalFolio,
		CreatedBy:   inv.CreatedBy,
		UpdatedBy:   inv.UpdatedBy,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
		Items: lo.Map(inv.Items, func(it *models.InvoiceItem, _ int) invoiceItemResponse {
			return invoiceItemResponse{
				Position:    it.Position,
				ShipmentID:  it.ShipmentID,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   money(it.UnitPrice),
				LineTotal:   money(it.LineTotal),
			}
		}),
	}
}

func toItemInputs(items []itemRequest) []services.ItemInput {
	return lo.Map(items, func(it itemRequest, _ int) services.ItemInput {
		return services.ItemInput{
			ShipmentID:  it.ShipmentID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	})
}

func (h *handlers) createInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.svc.Invoices.CreateDraft(c.Request.Context(), actorFrom(c), req.ClientID, services.DraftInput{
		InvoiceDate: req.InvoiceDate,
		DueDate:     req.DueDate,
		Items:       toItemInputs(req.Items),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvoiceResponse(inv))
}

func (h *handlers) updateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.svc.Invoices.UpdateDraft(c.Request.Context(), actorFrom(c), id, *req.Version, services.DraftInput{
		InvoiceDate: req.InvoiceDate,
		DueDate:     req.DueDate,
		Items:       toItemInputs(req.Items),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(inv))
}

func (h *handlers) issueInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	// the body is optional
	var req issueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	inv, err := h.svc.Invoices.Issue(c.Request.Context(), actorFrom(c), id, req.RequestID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(inv))
}

func (h *handlers) getInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	inv, err := h.svc.Invoices.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(inv))
}

func (h *handlers) listInvoices(c *gin.Context) {
	var status *models.InvoiceStatus
	if raw := c.Query("status"); raw != "" {
		st, ok := models.ParseInvoiceStatus(raw)
		if !ok {
			abortWithError(c, http.StatusBadRequest, KindValidation, "unknown invoice status "+raw)
			return
		}
		status = &st
	}

	list, err := h.svc.Invoices.List(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(list, func(inv *models.Invoice, _ int) invoiceResponse {
		return toInvoiceResponse(inv)
	}))
}

func (h *handlers) invoiceHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rows, err := h.svc.Invoices.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(rows, func(r *models.InvoiceHistory, _ int) historyResponse {
		var snapshot json.RawMessage
		if len(r.SnapshotPayload) > 0 {
			snapshot = r.SnapshotPayload
		}
		return historyResponse{
			ID:            r.ID,
			InvoiceID:     r.InvoiceID,
			Version:       r.Version,
			ChangedBy:     r.ChangedBy,
			ChangedAt:     r.ChangedAt,
			ChangeSummary: r.ChangeSummary,
			Snapshot:      snapshot,
		}
	}))
}
