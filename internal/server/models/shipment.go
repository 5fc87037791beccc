package models

import "time"

type ShipmentStatus string

const (
	ShipmentCreated   ShipmentStatus = "CREATED"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
	ShipmentCancelled ShipmentStatus = "CANCELLED"
)

func ParseShipmentStatus(s string) (ShipmentStatus, bool) {
	switch st := ShipmentStatus(s); st {
	case ShipmentCreated, ShipmentDelivered, ShipmentCancelled:
		return st, true
	}
	return "", false
}

type Shipment struct {
	ID        int64          `json:"id"`
	Reference string         `json:"reference"`
	Status    ShipmentStatus `json:"status"`
	Locked    bool           `json:"locked"`
	Invoiced  bool           `json:"invoiced"`
	CreatedAt time.Time      `json:"created_at"`
}
