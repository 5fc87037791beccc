package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/logging"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

const testToken = "good-token"

type fakeUsers struct {
	registered []string
	user       *models.User
	tokens     *services.TokenPair
	err        error
	loggedOut  string
	refreshed  string

	list        []*models.User
	updateActor string
	updateID    string
	update      services.UserUpdate
	deleted     []string
	prefs       *models.UserPreferences
	prefsActor  string
	prefsIn     [2]string
}

func (f *fakeUsers) Register(_ context.Context, username, _ string) (*models.User, error) {
	f.registered = append(f.registered, username)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-1", UserName: username}, nil
}

func (f *fakeUsers) Login(context.Context, string, string) (*services.TokenPair, error) {
	return f.tokens, f.err
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	f.refreshed = token
	return f.tokens, f.err
}

func (f *fakeUsers) Logout(_ context.Context, userID string) error {
	f.loggedOut = userID
	return f.err
}

func (f *fakeUsers) Get(_ context.Context, userID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil {
		return f.user, nil
	}
	return &models.User{ID: userID, UserName: "alice"}, nil
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) {
	return f.list, f.err
}

func (f *fakeUsers) Update(_ context.Context, actor, id string, in services.UserUpdate) (*models.User, error) {
	f.updateActor, f.updateID, f.update = actor, id, in
	if f.err != nil {
		return nil, f.err
	}
	name := "alice"
	if in.Username != nil {
		name = *in.Username
	}
	return &models.User{ID: id, UserName: name}, nil
}

func (f *fakeUsers) Delete(_ context.Context, actor, id string) error {
	f.deleted = append(f.deleted, actor+":"+id)
	return f.err
}

func (f *fakeUsers) Preferences(context.Context, string) (*models.UserPreferences, error) {
	return f.prefs, f.err
}

func (f *fakeUsers) UpsertPreferences(_ context.Context, actor, id, fontSize, contrastMode string) (*models.UserPreferences, error) {
	f.prefsActor, f.prefsIn = actor, [2]string{fontSize, contrastMode}
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserPreferences{UserID: id, FontSize: fontSize, ContrastMode: contrastMode}, nil
}

func (f *fakeUsers) Authenticate(token string) (string, error) {
	switch token {
	case testToken:
		return "user-1", nil
	case "expired":
		return "", common.ErrTokenExpired
	default:
		return "", common.ErrInvalidToken
	}
}

type createCall struct {
	actor    string
	clientID int64
	in       services.DraftInput
}

type updateCall struct {
	actor           string
	id, expectedVer int64
	in              services.DraftInput
}

type issueCall struct {
	actor     string
	id        int64
	requestID string
}

type fakeInvoices struct {
	created    []createCall
	updated    []updateCall
	issued     []issueCall
	listStatus *models.InvoiceStatus
	listed     bool

	invoice *models.Invoice
	list    []*models.Invoice
	history []*models.InvoiceHistory
	err     error
}

func (f *fakeInvoices) CreateDraft(_ context.Context, actor string, clientID int64, in services.DraftInput) (*models.Invoice, error) {
	f.created = append(f.created, createCall{actor, clientID, in})
	return f.invoice, f.err
}

func (f *fakeInvoices) UpdateDraft(_ context.Context, actor string, id, expectedVersion int64, in services.DraftInput) (*models.Invoice, error) {
	f.updated = append(f.updated, updateCall{actor, id, expectedVersion, in})
	return f.invoice, f.err
}

func (f *fakeInvoices) Issue(_ context.Context, actor string, id int64, requestID string) (*models.Invoice, error) {
	f.issued = append(f.issued, issueCall{actor, id, requestID})
	return f.invoice, f.err
}

func (f *fakeInvoices) Get(context.Context, int64) (*models.Invoice, error) {
	return f.invoice, f.err
}

func (f *fakeInvoices) List(_ context.Context, status *models.InvoiceStatus) ([]*models.Invoice, error) {
	f.listed = true
	f.listStatus = status
	return f.list, f.err
}

func (f *fakeInvoices) History(context.Context, int64) ([]*models.InvoiceHistory, error) {
	return f.history, f.err
}

type fakeShipments struct {
	listStatus *models.ShipmentStatus
	created    string
	shipment   *models.Shipment
	list       []*models.Shipment
	err        error
}

func (f *fakeShipments) List(_ context.Context, status *models.ShipmentStatus) ([]*models.Shipment, error) {
	f.listStatus = status
	return f.list, f.err
}

func (f *fakeShipments) Get(context.Context, int64) (*models.Shipment, error) {
	return f.shipment, f.err
}

func (f *fakeShipments) Create(_ context.Context, reference string) (*models.Shipment, error) {
	f.created = reference
	return f.shipment, f.err
}

type fakeDocuments struct {
	actor, filename, contentType string
	size                         int64
	body                         []byte

	doc *models.Document
	url string
	err error
}

func (f *fakeDocuments) Upload(_ context.Context, actor, filename, contentType string, size int64, body io.Reader) (*models.Document, error) {
	f.actor, f.filename, f.contentType, f.size = actor, filename, contentType, size
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return f.doc, f.err
}

func (f *fakeDocuments) Download(context.Context, int64) (*models.Document, string, error) {
	return f.doc, f.url, f.err
}

type fixture struct {
	users     *fakeUsers
	invoices  *fakeInvoices
	shipments *fakeShipments
	documents *fakeDocuments
	router    *gin.Engine
}

func newFixture(allowHeaderActor bool) *fixture {
	f := &fixture{
		users:     &fakeUsers{},
		invoices:  &fakeInvoices{},
		shipments: &fakeShipments{},
		documents: &fakeDocuments{},
	}
	f.router = NewRouter(Services{
		Users:     f.users,
		Invoices:  f.invoices,
		Shipments: f.shipments,
		Documents: f.documents,
	}, logging.Nop{}, allowHeaderActor)
	return f
}

func (f *fixture) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// authed sends the request with a valid bearer token.
func (f *fixture) authed(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, body, http.Header{"Authorization": {"Bearer " + testToken}})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
