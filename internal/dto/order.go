package dto

import (
	"time"

	"gorm.io/datatypes"
)

type OrderLineRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Reference    string             `json:"reference" binding:"required,min=1,max=64"`
	CustomerName string             `json:"customer_name" binding:"omitempty,max=200"`
	Lines        []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	Metadata     datatypes.JSON     `json:"metadata,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed shipped delivered cancelled"`
}

type OrderLineResponse struct {
	ID        uint    `json:"id"`
	ItemID    uint    `json:"item_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderResponse struct {
	ID           uint                `json:"id"`
	Reference    string              `json:"reference"`
	CustomerName string              `json:"customer_name,omitempty"`
	Status       string              `json:"status"`
	Lines        []OrderLineResponse `json:"lines,omitempty"`
	Deliveries   []DeliveryResponse  `json:"deliveries,omitempty"`
	Metadata     datatypes.JSON      `json:"metadata,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type CreateDeliveryRequest struct {
	Carrier      string     `json:"carrier" binding:"required,min=1,max=100"`
	TrackingCode string     `json:"tracking_code" binding:"omitempty,max=100"`
	ScheduledAt  *time.Time `json:"scheduled_at" binding:"omitempty"`
}

type UpdateDeliveryRequest struct {
	Status      string     `json:"status" binding:"required,oneof=scheduled in_transit completed failed"`
	DeliveredAt *time.Time `json:"delivered_at" binding:"omitempty"`
}

type DeliveryResponse struct {
	ID           uint       `json:"id"`
	OrderID      uint       `json:"order_id"`
	Carrier      string     `json:"carrier,omitempty"`
	TrackingCode string     `json:"tracking_code,omitempty"`
	Status       string     `json:"status"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
