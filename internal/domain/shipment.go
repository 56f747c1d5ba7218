package domain

import "time"

const (
	CarrierMock = "mock-delivery"

	ShipmentCreated = "created"
	// ShipmentDelivered is the only shipment status that moves the order.
	ShipmentDelivered = "delivered"
)

// Shipment status is free text.
type Shipment struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"orderId"`
	Carrier        string     `json:"carrier"`
	Status         string     `json:"status"`
	TrackingNumber string     `json:"trackingNumber"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

type ShipmentResult struct {
	Shipment Shipment `json:"shipment"`
	Order    Order    `json:"order"`
}
