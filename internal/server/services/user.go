// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/refreshing JWTs
// plus server-stored refresh tokens.
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
	"github.com/fabrica-p6f5/backoffice/internal/server/auth"
	"github.com/fabrica-p6f5/backoffice/internal/server/config"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/refreshtokens"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService provides account operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate a refresh token into a new pair
// - Update, Delete, UpsertPreferences: self-service account management
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
	now                          func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   bcrypt.DefaultCost,
		now:                          time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if len(password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, s.repomanager.RefreshTokens(s.db), user.ID)
}

// RefreshToken consumes refreshToken and returns a new pair. The old token
// is deleted in the same transaction that stores its replacement.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expired(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		removed, err := repo.Delete(ctx, refreshToken)
		if err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if !removed {
			return common.ErrInvalidToken
		}

		tokenPair, err = s.generateTokenPair(ctx, repo, token.UserID)
		if err != nil {
			return fmt.Errorf("error generating token pair: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// Logout revokes every refresh token of the user.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// UserUpdate lists the account fields to change. Nil fields are kept.
type UserUpdate struct {
	Username *string
	Password *string
}

// Update changes the actor's own account. A new password also revokes every
// refresh token of the user, in the same transaction.
func (s *UserService) Update(ctx context.Context, actor, id string, in UserUpdate) (*models.User, error) {
	if err := requireSelf(actor, id); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, validationError("username is required")
		}
		user.UserName = name
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, validationError("password must be at least %d characters", minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Update(ctx, user); err != nil {
			return err
		}
		if in.Password != nil {
			return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user, nil
}

// Delete removes the actor's own account together with its refresh tokens
// and preferences.
func (s *UserService) Delete(ctx context.Context, actor, id string) error {
	if err := requireSelf(actor, id); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}

// Preferences returns nil without an error when the user exists but has not
// saved any preferences.
func (s *UserService) Preferences(ctx context.Context, id string) (*models.UserPreferences, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	p, err := s.repomanager.Preferences(s.db).Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting preferences: %w", err)
	}
	return p, nil
}

const maxPreferenceLength = 32

func (s *UserService) UpsertPreferences(ctx context.Context, actor, id, fontSize, contrastMode string) (*models.UserPreferences, error) {
	if err := requireSelf(actor, id); err != nil {
		return nil, err
	}
	fontSize, contrastMode = strings.TrimSpace(fontSize), strings.TrimSpace(contrastMode)
	if len(fontSize) > maxPreferenceLength || len(contrastMode) > maxPreferenceLength {
		return nil, validationError("preference values are limited to %d characters", maxPreferenceLength)
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	p, err := s.repomanager.Preferences(s.db).Upsert(ctx, &models.UserPreferences{
		UserID:       id,
		FontSize:     fontSize,
		ContrastMode: contrastMode,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving preferences: %w", err)
	}
	return p, nil
}

// requireSelf allows account changes only to the account owner.
func requireSelf(actor, id string) error {
	if actor == "" || actor != id {
		return fmt.Errorf("%w: users may only change their own account", common.ErrForbidden)
	}
	return nil
}

// Authenticate resolves a bearer access token into a user id.
func (s *UserService) Authenticate(accessToken string) (string, error) {
	return auth.GetUserIDFromToken(accessToken, s.jwtSecret)
}

func (s *UserService) generateTokenPair(ctx context.Context, repo refreshtokens.Repository, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := repo.Create(ctx, userID, refreshToken, s.now().Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
