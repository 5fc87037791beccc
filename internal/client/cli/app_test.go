package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/fabrica-p6f5/backoffice/internal/client/api"
	"github.com/fabrica-p6f5/backoffice/internal/client/config"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	registered   [2]string
	loggedIn     [2]string
	logoutErr    error
	loggedOut    bool
	created      *api.DraftRequest
	updatedID    int64
	updated      *api.DraftRequest
	issuedID     int64
	issuedReq    string
	listStatus   string
	shipStatus   string
	shipCreated  string
	uploadedName string
	uploadedBody string

	invoice  *api.Invoice
	invoices []api.Invoice
	history  []api.HistoryEntry
	shipment *api.Shipment
	docURL   string
	err      error
}

func (f *fakeBackend) Register(_ context.Context, u, p string) (*api.User, error) {
	f.registered = [2]string{u, p}
	return &api.User{ID: "u-1", Username: u}, f.err
}

func (f *fakeBackend) Login(_ context.Context, u, p string) (*api.TokenPair, error) {
	f.loggedIn = [2]string{u, p}
	if f.err != nil {
		return nil, f.err
	}
	return &api.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.loggedOut = true
	return f.logoutErr
}

func (f *fakeBackend) Me(context.Context) (*api.User, error) {
	return &api.User{ID: "u-1", Username: "alice"}, f.err
}

func (f *fakeBackend) CreateInvoice(_ context.Context, in api.DraftRequest) (*api.Invoice, error) {
	f.created = &in
	return f.invoice, f.err
}

func (f *fakeBackend) UpdateInvoice(_ context.Context, id int64, in api.DraftRequest) (*api.Invoice, error) {
	f.updatedID, f.updated = id, &in
	return f.invoice, f.err
}

func (f *fakeBackend) IssueInvoice(_ context.Context, id int64, requestID string) (*api.Invoice, error) {
	f.issuedID, f.issuedReq = id, requestID
	return f.invoice, f.err
}

func (f *fakeBackend) GetInvoice(context.Context, int64) (*api.Invoice, error) {
	return f.invoice, f.err
}

func (f *fakeBackend) ListInvoices(_ context.Context, status string) ([]api.Invoice, error) {
	f.listStatus = status
	return f.invoices, f.err
}

func (f *fakeBackend) InvoiceHistory(context.Context, int64) ([]api.HistoryEntry, error) {
	return f.history, f.err
}

func (f *fakeBackend) ListShipments(_ context.Context, status string) ([]api.Shipment, error) {
	f.shipStatus = status
	return nil, f.err
}

func (f *fakeBackend) GetShipment(context.Context, int64) (*api.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeBackend) CreateShipment(_ context.Context, reference string) (*api.Shipment, error) {
	f.shipCreated = reference
	return &api.Shipment{ID: 5, Reference: reference}, f.err
}

func (f *fakeBackend) UploadDocument(_ context.Context, filename string, content io.Reader) (*api.Document, error) {
	b, _ := io.ReadAll(content)
	f.uploadedName, f.uploadedBody = filename, string(b)
	return &api.Document{ID: 9, Filename: filename, Size: int64(len(b))}, f.err
}

func (f *fakeBackend) DocumentURL(context.Context, int64) (string, error) {
	return f.docURL, f.err
}

type fakeSession struct {
	user, access, refresh string
	loggedOut, closed     bool
}

func (s *fakeSession) Login(_ context.Context, u, a, r string) error {
	s.user, s.access, s.refresh = u, a, r
	return nil
}

func (s *fakeSession) Logout(context.Context) error {
	s.loggedOut = true
	return nil
}

func (s *fakeSession) UserName(context.Context) (string, error) { return s.user, nil }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type harness struct {
	backend *fakeBackend
	session *fakeSession
	stdin   string
	cfg     *config.Config
}

func newHarness() *harness {
	return &harness{backend: &fakeBackend{}, session: &fakeSession{}}
}

// run executes the CLI with args and returns stdout.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand(func(_ context.Context, c *config.Config) (*App, error) {
		h.cfg = c
		return &App{
			api:        h.backend,
			session:    h.session,
			in:         bufio.NewReader(strings.NewReader(h.stdin)),
			httpClient: http.DefaultClient,
		}, nil
	})

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err)
	return out
}
