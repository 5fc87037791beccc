package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/samber/lo"
)

// shipmentIndex guards against billing one shipment twice.
const shipmentIndex = "ux_invoice_items_shipment"

const headerColumns = `invoice_id, client_id, invoice_date, due_date, status, total_amount,
		version, fiscal_folio, created_by, updated_by, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	query := `
		INSERT INTO invoices (client_id, invoice_date, due_date, status, total_amount, version, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING invoice_id
	`
	err := r.db.QueryRowContext(ctx, query,
		inv.ClientID, inv.InvoiceDate, inv.DueDate, inv.Status, inv.TotalAmount,
		inv.Version, inv.CreatedBy, inv.CreatedAt).Scan(&inv.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.insertItems(ctx, inv.ID, inv.Items); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *PostgresRepository) insertItems(ctx context.Context, invoiceID int64, items []*models.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (invoice_id, position, shipment_id, description, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for _, it := range items {
		it.InvoiceID = invoiceID
		err := r.db.QueryRowContext(ctx, query,
			invoiceID, it.Position, it.ShipmentID, it.Description, it.Quantity, it.UnitPrice, it.LineTotal).Scan(&it.ID)
		if err != nil {
			if name, ok := dbx.UniqueViolation(err); ok && name == shipmentIndex {
				return common.ErrDuplicateShipment
			}
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHeader(s scanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := s.Scan(&inv.ID, &inv.ClientID, &inv.InvoiceDate, &inv.DueDate, &inv.Status, &inv.TotalAmount,
		&inv.Version, &inv.FiscalFolio, &inv.CreatedBy, &inv.UpdatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT ` + headerColumns + `
		FROM invoices
		WHERE invoice_id = $1
	`
	inv, err := scanHeader(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *PostgresRepository) items(ctx context.Context, invoiceID int64) ([]*models.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, position, shipment_id, description, quantity, unit_price, line_total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	result := []*models.InvoiceItem{}
	for rows.Next() {
		var it models.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.ShipmentID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, err
		}
		result = append(result, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) List(ctx context.Context, status *models.InvoiceStatus) ([]*models.Invoice, error) {
	query := `SELECT ` + headerColumns + `
		FROM invoices
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY invoice_id DESC
	`
	var arg any
	if status != nil {
		arg = string(*status)
	}
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select invoices: %w", err)
	}
	defer rows.Close()

	result := []*models.Invoice{}
	for rows.Next() {
		inv, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// affectedOne maps the outcome of a guarded single-row update.
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) UpdateDraft(ctx context.Context, inv *models.Invoice, expectedVersion int64) error {
	query := `
		UPDATE invoices
		SET client_id = $1, invoice_date = $2, due_date = $3, total_amount = $4,
			updated_by = $5, updated_at = $6, version = version + 1
		WHERE invoice_id = $7 AND version = $8 AND status = 'DRAFT'
	`
	res, err := r.db.ExecContext(ctx, query,
		inv.ClientID, inv.InvoiceDate, inv.DueDate, inv.TotalAmount,
		inv.UpdatedBy, inv.UpdatedAt, inv.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	inv.Version = expectedVersion + 1
	return nil
}

func (r *PostgresRepository) MarkIssued(ctx context.Context, id, expectedVersion int64, folio, actor string, at time.Time) error {
	query := `
		UPDATE invoices
		SET status = 'ISSUED', fiscal_folio = $1, updated_by = $2, updated_at = $3, version = version + 1
		WHERE invoice_id = $4 AND version = $5 AND status = 'DRAFT'
	`
	res, err := r.db.ExecContext(ctx, query, folio, actor, at, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res)
}

func (r *PostgresRepository) ReplaceItems(ctx context.Context, invoiceID int64, items []*models.InvoiceItem) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return r.insertItems(ctx, invoiceID, items)
}

func (r *PostgresRepository) InvoicedShipments(ctx context.Context, shipmentIDs []int64, excludeInvoiceID int64) ([]int64, error) {
	if len(shipmentIDs) == 0 {
		return nil, nil
	}

	placeholders := lo.Map(shipmentIDs, func(_ int64, i int) string {
		return fmt.Sprintf("$%d", i+2)
	})
	query := `
		SELECT DISTINCT shipment_id
		FROM invoice_items
		WHERE invoice_id <> $1 AND shipment_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY shipment_id
	`
	args := make([]any, 0, len(shipmentIDs)+1)
	args = append(args, excludeInvoiceID)
	for _, id := range shipmentIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select shipments: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
