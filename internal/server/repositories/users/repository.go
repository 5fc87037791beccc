// Package users declares the account storage used by the authentication flow.
package users

import (
	"context"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills its ID and CreatedAt. A taken
	// username yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Update stores the username and password hash of an existing user.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
