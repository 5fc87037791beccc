package repomanager

import (
	"context"
	"database/sql"

	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/documents"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/history"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/idempotency"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/invoices"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/preferences"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/refreshtokens"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/shipments"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Invoices(db dbx.DBTX) invoices.Repository
	History(db dbx.DBTX) history.Repository
	Idempotency(db dbx.DBTX) idempotency.Repository
	Shipments(db dbx.DBTX) shipments.Repository
	Documents(db dbx.DBTX) documents.Repository
	Preferences(db dbx.DBTX) preferences.Repository
}
