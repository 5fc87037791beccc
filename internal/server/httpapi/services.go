// Package httpapi exposes the back-office services as a JSON REST API built
// on gin. Handlers only translate between HTTP and the service layer; every
// business rule lives in the services package.
package httpapi

import (
	"context"
	"io"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, actor, id string, in services.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, actor, id string) error
	Preferences(ctx context.Context, id string) (*models.UserPreferences, error)
	UpsertPreferences(ctx context.Context, actor, id, fontSize, contrastMode string) (*models.UserPreferences, error)
	Authenticator
}

// Authenticator resolves a bearer access token into the acting user id.
type Authenticator interface {
	Authenticate(accessToken string) (string, error)
}

type InvoiceService interface {
	CreateDraft(ctx context.Context, actor string, clientID int64, in services.DraftInput) (*models.Invoice, error)
	UpdateDraft(ctx context.Context, actor string, id, expectedVersion int64, in services.DraftInput) (*models.Invoice, error)
	Issue(ctx context.Context, actor string, id int64, requestID string) (*models.Invoice, error)
	Get(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context, status *models.InvoiceStatus) ([]*models.Invoice, error)
	History(ctx context.Context, id int64) ([]*models.InvoiceHistory, error)
}

type ShipmentService interface {
	List(ctx context.Context, status *models.ShipmentStatus) ([]*models.Shipment, error)
	Get(ctx context.Context, id int64) (*models.Shipment, error)
	Create(ctx context.Context, reference string) (*models.Shipment, error)
}

type DocumentService interface {
	Upload(ctx context.Context, actor, filename, contentType string, size int64, body io.Reader) (*models.Document, error)
	Download(ctx context.Context, id int64) (*models.Document, string, error)
}

// Services groups the dependencies of the router.
type Services struct {
	Users     UserService
	Invoices  InvoiceService
	Shipments ShipmentService
	Documents DocumentService
}
