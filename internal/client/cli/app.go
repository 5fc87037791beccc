package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"

	"github.com/fabrica-p6f5/backoffice/internal/client/api"
	"github.com/fabrica-p6f5/backoffice/internal/client/config"
	"github.com/fabrica-p6f5/backoffice/internal/client/session"
)

// Backend is the subset of the REST client used by the commands.
type Backend interface {
	Register(ctx context.Context, username, password string) (*api.User, error)
	Login(ctx context.Context, username, password string) (*api.TokenPair, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.User, error)

	CreateInvoice(ctx context.Context, in api.DraftRequest) (*api.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, in api.DraftRequest) (*api.Invoice, error)
	IssueInvoice(ctx context.Context, id int64, requestID string) (*api.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*api.Invoice, error)
	ListInvoices(ctx context.Context, status string) ([]api.Invoice, error)
	InvoiceHistory(ctx context.Context, id int64) ([]api.HistoryEntry, error)

	ListShipments(ctx context.Context, status string) ([]api.Shipment, error)
	GetShipment(ctx context.Context, id int64) (*api.Shipment, error)
	CreateShipment(ctx context.Context, reference string) (*api.Shipment, error)

	UploadDocument(ctx context.Context, filename string, content io.Reader) (*api.Document, error)
	DocumentURL(ctx context.Context, id int64) (string, error)
}

// Session is the locally persisted login state.
type Session interface {
	Login(ctx context.Context, username, access, refresh string) error
	Logout(ctx context.Context) error
	UserName(ctx context.Context) (string, error)
	Close() error
}

type App struct {
	api        Backend
	session    Session
	in         *bufio.Reader
	httpClient *http.Client
}

// NewApp opens the session database and builds the REST client on top of it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	store, err := session.Open(ctx, c.SessionFile)
	if err != nil {
		return nil, err
	}

	return &App{
		api:        api.New(c.ServerURL, c.RequestTimeout, store),
		session:    store,
		in:         bufio.NewReader(os.Stdin),
		httpClient: &http.Client{Timeout: c.RequestTimeout},
	}, nil
}

func (a *App) Close() error {
	return a.session.Close()
}
