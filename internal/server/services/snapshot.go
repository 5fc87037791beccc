package services

import (
	"encoding/json"
	"fmt"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
)

// SnapshotSerializer turns an invoice into the payload stored with each
// history record.
type SnapshotSerializer interface {
	Serialize(inv *models.Invoice) ([]byte, error)
}

// JSONSnapshotSerializer stores the whole invoice, header and items, as JSON.
type JSONSnapshotSerializer struct{}

func (JSONSnapshotSerializer) Serialize(inv *models.Invoice) ([]byte, error) {
	b, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}
	return b, nil
}
