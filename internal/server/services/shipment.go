package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/repomanager"
)

type ShipmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewShipmentService(db *sql.DB, m repomanager.RepositoryManager) *ShipmentService {
	return &ShipmentService{db: db, repomanager: m}
}

func (s *ShipmentService) List(ctx context.Context, status *models.ShipmentStatus) ([]*models.Shipment, error) {
	list, err := s.repomanager.Shipments(s.db).List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	return list, nil
}

func (s *ShipmentService) Get(ctx context.Context, id int64) (*models.Shipment, error) {
	sh, err := s.repomanager.Shipments(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return sh, nil
}

// Create registers a new shipment in CREATED state.
func (s *ShipmentService) Create(ctx context.Context, reference string) (*models.Shipment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, validationError("reference is required")
	}
	sh, err := s.repomanager.Shipments(s.db).Create(ctx, &models.Shipment{
		Reference: reference,
		Status:    models.ShipmentCreated,
	})
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	return sh, nil
}
