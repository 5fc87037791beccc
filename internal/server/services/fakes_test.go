package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/server/events"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/documents"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/history"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/idempotency"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/invoices"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/preferences"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/refreshtokens"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/shipments"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// memStore keeps invoices, history and idempotency keys in memory and
// enforces the same guards as the SQL statements do. Writes made inside a
// transaction that rolls back are undone, see withTx.
type memStore struct {
	invoices    map[int64]*models.Invoice
	history     []*models.InvoiceHistory
	keys        map[string]time.Time
	keyLookups  []string
	nextInvoice int64
	nextItem    int64

	// writes committed by other transactions while one is open
	outside []func()

	errs             map[string]error
	beforeMarkIssued func()
	beforeRecordKey  func()
}

type memState struct {
	invoices    map[int64]*models.Invoice
	history     []*models.InvoiceHistory
	keys        map[string]time.Time
	nextInvoice int64
	nextItem    int64
}

func (st *memStore) snapshot() memState {
	s := memState{
		invoices:    make(map[int64]*models.Invoice, len(st.invoices)),
		history:     append([]*models.InvoiceHistory(nil), st.history...),
		keys:        make(map[string]time.Time, len(st.keys)),
		nextInvoice: st.nextInvoice,
		nextItem:    st.nextItem,
	}
	for id, inv := range st.invoices {
		s.invoices[id] = cloneInvoice(inv)
	}
	for k, v := range st.keys {
		s.keys[k] = v
	}
	return s
}

func (st *memStore) restore(s memState) {
	st.invoices, st.history, st.keys = s.invoices, s.history, s.keys
	st.nextInvoice, st.nextItem = s.nextInvoice, s.nextItem
}

// commitOutside applies fn as a write of a concurrent transaction that has
// already committed: it survives a rollback of the one in progress.
func (st *memStore) commitOutside(fn func()) {
	fn()
	st.outside = append(st.outside, fn)
}

// withTx wraps a transaction runner so the store follows its outcome.
func (st *memStore) withTx(inner func(context.Context, *sql.DB, *sql.TxOptions, func(context.Context, dbx.DBTX) error) error) func(context.Context, *sql.DB, *sql.TxOptions, func(context.Context, dbx.DBTX) error) error {
	return func(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(context.Context, dbx.DBTX) error) error {
		before := st.snapshot()
		st.outside = nil
		err := inner(ctx, db, opts, fn)
		if err != nil {
			st.restore(before)
			for _, w := range st.outside {
				w()
			}
		}
		st.outside = nil
		return err
	}
}

func newMemStore() *memStore {
	return &memStore{
		invoices: map[int64]*models.Invoice{},
		keys:     map[string]time.Time{},
		errs:     map[string]error{},
	}
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	c := *inv
	c.Items = make([]*models.InvoiceItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		ic := *it
		c.Items = append(c.Items, &ic)
	}
	return &c
}

func (st *memStore) historyOf(id int64) []*models.InvoiceHistory {
	var out []*models.InvoiceHistory
	for _, h := range st.history {
		if h.InvoiceID == id {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out
}

type memInvoices struct{ st *memStore }

func (r memInvoices) assignItems(invoiceID int64, items []*models.InvoiceItem) {
	for _, it := range items {
		r.st.nextItem++
		it.ID = r.st.nextItem
		it.InvoiceID = invoiceID
	}
}

func (r memInvoices) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	if err := r.st.errs["Invoices.Create"]; err != nil {
		return nil, err
	}
	r.st.nextInvoice++
	inv.ID = r.st.nextInvoice
	r.assignItems(inv.ID, inv.Items)
	r.st.invoices[inv.ID] = cloneInvoice(inv)
	return inv, nil
}

func (r memInvoices) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, ok := r.st.invoices[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneInvoice(inv), nil
}

func (r memInvoices) List(ctx context.Context, status *models.InvoiceStatus) ([]*models.Invoice, error) {
	if err := r.st.errs["Invoices.List"]; err != nil {
		return nil, err
	}
	out := []*models.Invoice{}
	for _, inv := range r.st.invoices {
		if status == nil || inv.Status == *status {
			c := cloneInvoice(inv)
			c.Items = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memInvoices) UpdateDraft(ctx context.Context, inv *models.Invoice, expectedVersion int64) error {
	if err := r.st.errs["Invoices.UpdateDraft"]; err != nil {
		return err
	}
	stored, ok := r.st.invoices[inv.ID]
	if !ok || stored.Version != expectedVersion || stored.Status != models.InvoiceDraft {
		return common.ErrVersionConflict
	}
	stored.ClientID = inv.ClientID
	stored.InvoiceDate = inv.InvoiceDate
	stored.DueDate = inv.DueDate
	stored.TotalAmount = inv.TotalAmount
	stored.UpdatedBy = inv.UpdatedBy
	stored.UpdatedAt = inv.UpdatedAt
	stored.Version++
	inv.Version = expectedVersion + 1
	return nil
}

func (r memInvoices) MarkIssued(ctx context.Context, id, expectedVersion int64, folio, actor string, at time.Time) error {
	if r.st.beforeMarkIssued != nil {
		r.st.beforeMarkIssued()
	}
	stored, ok := r.st.invoices[id]
	if !ok || stored.Version != expectedVersion || stored.Status != models.InvoiceDraft {
		return common.ErrVersionConflict
	}
	stored.Status = models.InvoiceIssued
	stored.FiscalFolio = &folio
	stored.UpdatedBy = &actor
	stored.UpdatedAt = &at
	stored.Version++
	return nil
}

func (r memInvoices) ReplaceItems(ctx context.Context, invoiceID int64, items []*models.InvoiceItem) error {
	r.assignItems(invoiceID, items)
	c := cloneInvoice(&models.Invoice{Items: items})
	r.st.invoices[invoiceID].Items = c.Items
	return nil
}

func (r memInvoices) InvoicedShipments(ctx context.Context, ids []int64, excludeInvoiceID int64) ([]int64, error) {
	if err := r.st.errs["Invoices.InvoicedShipments"]; err != nil {
		return nil, err
	}
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []int64
	for _, inv := range r.st.invoices {
		if inv.ID == excludeInvoiceID {
			continue
		}
		for _, it := range inv.Items {
			if it.ShipmentID != nil && want[*it.ShipmentID] {
				out = append(out, *it.ShipmentID)
			}
		}
	}
	return out, nil
}

type memHistory struct{ st *memStore }

func (r memHistory) Record(ctx context.Context, h *models.InvoiceHistory) error {
	if err := r.st.errs["History.Record"]; err != nil {
		return err
	}
	h.ID = int64(len(r.st.history) + 1)
	r.st.history = append(r.st.history, h)
	return nil
}

func (r memHistory) ListByInvoice(ctx context.Context, id int64) ([]*models.InvoiceHistory, error) {
	if err := r.st.errs["History.ListByInvoice"]; err != nil {
		return nil, err
	}
	out := r.st.historyOf(id)
	if out == nil {
		out = []*models.InvoiceHistory{}
	}
	return out, nil
}

type memKeys struct{ st *memStore }

func (r memKeys) Exists(ctx context.Context, key string) (bool, error) {
	r.st.keyLookups = append(r.st.keyLookups, key)
	_, ok := r.st.keys[key]
	return ok, nil
}

func (r memKeys) Record(ctx context.Context, key string, at time.Time) error {
	if r.st.beforeRecordKey != nil {
		r.st.beforeRecordKey()
	}
	if err := r.st.errs["Idempotency.Record"]; err != nil {
		return err
	}
	if _, ok := r.st.keys[key]; ok {
		return common.ErrAlreadyExists
	}
	r.st.keys[key] = at
	return nil
}

// fakeRepoManager hands out the in-memory repositories regardless of the
// DBTX it is given; transactions are observed through sqlmock.
type fakeRepoManager struct {
	st        *memStore
	users     users.Repository
	refresh   refreshtokens.Repository
	shipments shipments.Repository
	documents documents.Repository
	prefs     preferences.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refresh
}
func (m *fakeRepoManager) Invoices(dbx.DBTX) invoices.Repository       { return memInvoices{m.st} }
func (m *fakeRepoManager) History(dbx.DBTX) history.Repository         { return memHistory{m.st} }
func (m *fakeRepoManager) Idempotency(dbx.DBTX) idempotency.Repository { return memKeys{m.st} }
func (m *fakeRepoManager) Shipments(dbx.DBTX) shipments.Repository     { return m.shipments }
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository     { return m.documents }
func (m *fakeRepoManager) Preferences(dbx.DBTX) preferences.Repository { return m.prefs }

type fakePublisher struct {
	events []events.InvoiceIssued
	err    error
}

func (p *fakePublisher) PublishInvoiceIssued(ctx context.Context, ev events.InvoiceIssued) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }
