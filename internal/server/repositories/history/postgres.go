package history

import (
	"context"
	"fmt"

	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, h *models.InvoiceHistory) error {
	query := `
		INSERT INTO invoice_history (invoice_id, version, changed_by, changed_at, change_summary, snapshot_payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING history_id
	`
	err := r.db.QueryRowContext(ctx, query,
		h.InvoiceID, h.Version, h.ChangedBy, h.ChangedAt, h.ChangeSummary, string(h.SnapshotPayload)).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.InvoiceHistory, error) {
	query := `
		SELECT history_id, invoice_id, version, changed_by, changed_at, COALESCE(change_summary, ''), snapshot_payload
		FROM invoice_history
		WHERE invoice_id = $1
		ORDER BY version DESC, history_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	result := []*models.InvoiceHistory{}
	for rows.Next() {
		var h models.InvoiceHistory
		if err := rows.Scan(&h.ID, &h.InvoiceID, &h.Version, &h.ChangedBy, &h.ChangedAt,
			&h.ChangeSummary, &h.SnapshotPayload); err != nil {
			return nil, err
		}
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
