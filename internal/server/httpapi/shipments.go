package httpapi

import (
	"net/http"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type createShipmentRequest struct {
	Reference string `json:"reference"`
}

type shipmentResponse struct {
	ID        int64                 `json:"id"`
	Reference string                `json:"reference"`
	Status    models.ShipmentStatus `json:"status"`
	Locked    bool                  `json:"locked"`
	Invoiced  bool                  `json:"invoiced"`
	CreatedAt time.Time             `json:"createdAt"`
}

func toShipmentResponse(s *models.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:        s.ID,
		Reference: s.Reference,
		Status:    s.Status,
		Locked:    s.Locked,
		Invoiced:  s.Invoiced,
		CreatedAt: s.CreatedAt,
	}
}

func (h *handlers) listShipments(c *gin.Context) {
	var status *models.ShipmentStatus
	if raw := c.Query("status"); raw != "" {
		st, ok := models.ParseShipmentStatus(raw)
		if !ok {
			abortWithError(c, http.StatusBadRequest, KindValidation, "unknown shipment status "+raw)
			return
		}
		status = &st
	}

	list, err := h.svc.Shipments.List(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(list, func(s *models.Shipment, _ int) shipmentResponse {
		return toShipmentResponse(s)
	}))
}

func (h *handlers) getShipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s, err := h.svc.Shipments.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toShipmentResponse(s))
}

func (h *handlers) createShipment(c *gin.Context) {
	var req createShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.svc.Shipments.Create(c.Request.Context(), req.Reference)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toShipmentResponse(s))
}
