package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/logging"
	"github.com/fabrica-p6f5/backoffice/internal/server/events"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/invoices"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// History change summaries.
// A draft edited while it is being issued is re-read and issued again, up to
// issueRetries more times.
const (
	issueRetries    = 3
	issueRetryDelay = 5 * time.Millisecond
)

const (
	summaryCreated = "Created draft"
	summaryEdited  = "Edited draft"
	summaryIssued  = "Issued invoice folio=%s"
)

// ItemInput is one requested invoice line.
type ItemInput struct {
	ShipmentID  *int64
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// DraftInput carries the editable part of a draft.
type DraftInput struct {
	InvoiceDate time.Time
	DueDate     *time.Time
	Items       []ItemInput
}

// InvoiceService runs the invoice lifecycle: drafts are created and edited
// under optimistic versioning, then issued exactly once per idempotency key.
// Every mutation commits together with one history snapshot.
type InvoiceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	serializer  SnapshotSerializer
	publisher   events.Publisher
	logger      logging.Logger

	now             func() time.Time
	newRequestToken func() string
	withTx          func(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

func NewInvoiceService(db *sql.DB, m repomanager.RepositoryManager, serializer SnapshotSerializer,
	publisher events.Publisher, logger logging.Logger) *InvoiceService {
	return &InvoiceService{
		db:              db,
		repomanager:     m,
		serializer:      serializer,
		publisher:       publisher,
		logger:          logger.With("module", "invoices"),
		now:             func() time.Time { return time.Now().UTC() },
		newRequestToken: func() string { return uuid.NewString() },
		withTx:          dbx.WithTx,
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

// buildItems validates the requested lines and prices them.
func buildItems(in []ItemInput) ([]*models.InvoiceItem, decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, decimal.Zero, validationError("at least one item is required")
	}

	seen := make(map[int64]struct{}, len(in))
	items := make([]*models.InvoiceItem, 0, len(in))
	total := decimal.Zero
	for i, it := range in {
		if strings.TrimSpace(it.Description) == "" {
			return nil, decimal.Zero, validationError("item %d: description is required", i)
		}
		if it.Quantity < 1 {
			return nil, decimal.Zero, validationError("item %d: quantity must be at least 1", i)
		}
		if it.UnitPrice.IsNegative() {
			return nil, decimal.Zero, validationError("item %d: unit price must not be negative", i)
		}
		if it.ShipmentID != nil {
			if _, dup := seen[*it.ShipmentID]; dup {
				return nil, decimal.Zero, fmt.Errorf("%w: shipment %d listed twice", common.ErrDuplicateShipment, *it.ShipmentID)
			}
			seen[*it.ShipmentID] = struct{}{}
		}

		unitPrice := it.UnitPrice.Round(common.MoneyScale)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(common.MoneyScale)
		total = total.Add(lineTotal)
		items = append(items, &models.InvoiceItem{
			Position:    i,
			ShipmentID:  it.ShipmentID,
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}
	return items, total.Round(common.MoneyScale), nil
}

func shipmentIDs(items []*models.InvoiceItem) []int64 {
	return lo.FilterMap(items, func(it *models.InvoiceItem, _ int) (int64, bool) {
		if it.ShipmentID == nil {
			return 0, false
		}
		return *it.ShipmentID, true
	})
}

// ensureShipmentsFree fails when any referenced shipment is already billed
// on an invoice other than excludeInvoiceID.
func ensureShipmentsFree(ctx context.Context, repo invoices.Repository, items []*models.InvoiceItem, excludeInvoiceID int64) error {
	ids := shipmentIDs(items)
	if len(ids) == 0 {
		return nil
	}
	taken, err := repo.InvoicedShipments(ctx, ids, excludeInvoiceID)
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("%w: %v", common.ErrDuplicateShipment, taken)
	}
	return nil
}

func (s *InvoiceService) recordHistory(ctx context.Context, tx dbx.DBTX, inv *models.Invoice, actor string, at time.Time, summary string) error {
	payload, err := s.serializer.Serialize(inv)
	if err != nil {
		return err
	}
	return s.repomanager.History(tx).Record(ctx, &models.InvoiceHistory{
		InvoiceID:       inv.ID,
		Version:         inv.Version,
		ChangedBy:       actor,
		ChangedAt:       at,
		ChangeSummary:   summary,
		SnapshotPayload: payload,
	})
}

func (s *InvoiceService) CreateDraft(ctx context.Context, actor string, clientID int64, in DraftInput) (*models.Invoice, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, validationError("actor is required")
	}
	if clientID <= 0 {
		return nil, validationError("client id is required")
	}
	if in.InvoiceDate.IsZero() {
		return nil, validationError("invoice date is required")
	}
	items, total, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &models.Invoice{
		ClientID:    clientID,
		InvoiceDate: in.InvoiceDate,
		DueDate:     in.DueDate,
		Status:      models.InvoiceDraft,
		TotalAmount: total,
		Version:     models.InitialInvoiceVersion,
		CreatedBy:   actor,
		CreatedAt:   now,
		Items:       items,
	}

	err = s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Invoices(tx)
		if err := ensureShipmentsFree(ctx, repo, items, 0); err != nil {
			return err
		}
		if _, err := repo.Create(ctx, inv); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, inv, actor, now, summaryCreated)
	})
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	s.logger.Info(ctx, "draft created", "invoice_id", inv.ID, "actor", actor, "total", inv.TotalAmount.StringFixed(common.MoneyScale))
	return inv, nil
}

func (s *InvoiceService) UpdateDraft(ctx context.Context, actor string, id, expectedVersion int64, in DraftInput) (*models.Invoice, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, validationError("actor is required")
	}
	if in.InvoiceDate.IsZero() {
		return nil, validationError("invoice date is required")
	}
	items, total, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	var inv *models.Invoice
	err = s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Invoices(tx)

		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != models.InvoiceDraft {
			return fmt.Errorf("%w: invoice %d is %s", common.ErrInvalidState, id, current.Status)
		}
		if current.Version != expectedVersion {
			return fmt.Errorf("%w: expected version %d, current %d", common.ErrVersionConflict, expectedVersion, current.Version)
		}
		if err := ensureShipmentsFree(ctx, repo, items, id); err != nil {
			return err
		}

		now := s.now()
		current.InvoiceDate = in.InvoiceDate
		current.DueDate = in.DueDate
		current.TotalAmount = total
		current.UpdatedBy = &actor
		current.UpdatedAt = &now
		if err := repo.UpdateDraft(ctx, current, expectedVersion); err != nil {
			return err
		}
		if err := repo.ReplaceItems(ctx, id, items); err != nil {
			return err
		}
		current.Items = items

		inv = current
		return s.recordHistory(ctx, tx, current, actor, now, summaryEdited)
	})
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}

	s.logger.Info(ctx, "draft edited", "invoice_id", id, "actor", actor, "version", inv.Version)
	return inv, nil
}

// IssueKey is the idempotency key of one issue attempt.
func IssueKey(invoiceID int64, token string) string {
	return fmt.Sprintf("ISSUE:%d:%s", invoiceID, token)
}

// FiscalFolio is the fiscal number assigned when an invoice is issued.
func FiscalFolio(at time.Time, invoiceID int64) string {
	return fmt.Sprintf("FISC-%d-%d", at.Unix(), invoiceID)
}

func validateFiscalData(inv *models.Invoice) error {
	if inv.ClientID <= 0 {
		return fmt.Errorf("%w: invoice %d has no client", common.ErrMissingFiscalData, inv.ID)
	}
	if inv.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: invoice %d has a negative total", common.ErrMissingFiscalData, inv.ID)
	}
	return nil
}

// Issue turns a DRAFT into an ISSUED invoice with a fiscal folio.
//
// Retries carrying the same requestID are answered with the invoice's
// current state. With an empty requestID every call gets a fresh key, so
// such retries are only made safe by the status check: an invoice that is
// no longer DRAFT is returned unchanged.
//
// The version is not part of the contract: if the draft is edited while it
// is being issued, the attempt is repeated against the edited draft.
func (s *InvoiceService) Issue(ctx context.Context, actor string, id int64, requestID string) (*models.Invoice, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, validationError("actor is required")
	}
	token := requestID
	if token == "" {
		token = s.newRequestToken()
	}
	key := IssueKey(id, token)

	var (
		result *models.Invoice
		issued bool
	)
	backoff := retry.WithMaxRetries(issueRetries, retry.NewConstant(issueRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		result, issued, err = s.issueOnce(ctx, actor, id, key)
		if !errors.Is(err, common.ErrVersionConflict) && !errors.Is(err, common.ErrAlreadyExists) {
			return err
		}

		// another writer committed between our read and our write
		current, gerr := s.repomanager.Invoices(s.db).GetByID(ctx, id)
		if gerr != nil {
			return gerr
		}
		if current.Status == models.InvoiceDraft {
			s.logger.Debug(ctx, "draft changed while issuing, retrying", "invoice_id", id, "version", current.Version)
			return retry.RetryableError(err)
		}
		s.logger.Debug(ctx, "issue resolved by concurrent writer", "invoice_id", id, "status", string(current.Status))
		result, issued = current, false
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("issue invoice: %w", err)
	}

	if issued {
		s.logger.Info(ctx, "invoice issued", "invoice_id", id, "actor", actor, "folio", *result.FiscalFolio)
		if err := s.publisher.PublishInvoiceIssued(ctx, events.NewInvoiceIssued(result)); err != nil {
			s.logger.Warn(ctx, "publish invoice.issued failed", "invoice_id", id, "error", err.Error())
		}
	}
	return result, nil
}

// issueOnce runs one issue attempt in its own transaction. issued is false
// when the key was already processed or the invoice is no longer a draft.
func (s *InvoiceService) issueOnce(ctx context.Context, actor string, id int64, key string) (result *models.Invoice, issued bool, err error) {
	err = s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Invoices(tx)
		keys := s.repomanager.Idempotency(tx)

		processed, err := keys.Exists(ctx, key)
		if err != nil {
			return err
		}

		inv, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if processed || inv.Status != models.InvoiceDraft {
			result = inv
			return nil
		}
		if err := validateFiscalData(inv); err != nil {
			return err
		}

		now := s.now()
		folio := FiscalFolio(now, id)
		if err := repo.MarkIssued(ctx, id, inv.Version, folio, actor, now); err != nil {
			return err
		}
		if err := keys.Record(ctx, key, now); err != nil {
			return err
		}

		inv.Status = models.InvoiceIssued
		inv.FiscalFolio = &folio
		inv.UpdatedBy = &actor
		inv.UpdatedAt = &now
		inv.Version++
		if err := s.recordHistory(ctx, tx, inv, actor, now, fmt.Sprintf(summaryIssued, folio)); err != nil {
			return err
		}

		result, issued = inv, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, issued, nil
}

func (s *InvoiceService) Get(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, err := s.repomanager.Invoices(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (s *InvoiceService) List(ctx context.Context, status *models.InvoiceStatus) ([]*models.Invoice, error) {
	list, err := s.repomanager.Invoices(s.db).List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return list, nil
}

// History returns the snapshots of an invoice, newest version first. An
// unknown invoice has an empty history.
func (s *InvoiceService) History(ctx context.Context, id int64) ([]*models.InvoiceHistory, error) {
	list, err := s.repomanager.History(s.db).ListByInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice history: %w", err)
	}
	return list, nil
}
