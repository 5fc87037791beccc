package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.UserPreferences, error) {
	query := `
		SELECT user_id, font_size, contrast_mode, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	p := &models.UserPreferences{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.FontSize, &p.ContrastMode, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.UserPreferences) (*models.UserPreferences, error) {
	query := `
		INSERT INTO user_preferences (user_id, font_size, contrast_mode, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET font_size = EXCLUDED.font_size, contrast_mode = EXCLUDED.contrast_mode, updated_at = now()
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, p.UserID, p.FontSize, p.ContrastMode).Scan(&p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
