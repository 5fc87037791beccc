// Package preferences stores per-user display settings.
package preferences

import (
	"context"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when the user has saved nothing yet.
	Get(ctx context.Context, userID string) (*models.UserPreferences, error)
	Upsert(ctx context.Context, p *models.UserPreferences) (*models.UserPreferences, error)
}
