// Package refreshtokens declares the storage contract for the opaque refresh
// tokens handed out at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

// Repository stores refresh tokens. Each token is single use: the auth
// service deletes it before issuing its replacement.
type Repository interface {
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Find returns common.ErrorNotFound for unknown tokens.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete reports whether a row was removed, so that two concurrent
	// refreshes with the same token cannot both succeed.
	Delete(ctx context.Context, token string) (bool, error)

	DeleteByUser(ctx context.Context, userID string) error
}
