package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// legalTransitions lists the allowed next states per status
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	gorm.Model
	OrganizationID uint           `gorm:"column:organization_id;not null;index"`
	Reference      string         `gorm:"column:reference;not null"`
	CustomerName   string         `gorm:"column:customer_name"`
	Status         OrderStatus    `gorm:"column:status;type:varchar(20);default:'pending';not null;index"`
	CreatedBy      uint           `gorm:"column:created_by;not null"`
	Metadata       datatypes.JSON `gorm:"column:metadata"`

	Lines      []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Deliveries []Delivery  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderLine struct {
	gorm.Model
	OrderID   uint    `gorm:"column:order_id;not null;index"`
	ItemID    uint    `gorm:"column:item_id;not null"`
	Quantity  int     `gorm:"column:quantity;not null"`
	UnitPrice float64 `gorm:"column:unit_price;not null"`
}

type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryCompleted DeliveryStatus = "completed"
	DeliveryFailed    DeliveryStatus = "failed"
)

type Delivery struct {
	gorm.Model
	OrderID      uint           `gorm:"column:order_id;not null;index"`
	Carrier      string         `gorm:"column:carrier"`
	TrackingCode string         `gorm:"column:tracking_code"`
	Status       DeliveryStatus `gorm:"column:status;type:varchar(20);default:'scheduled';not null"`
	ScheduledAt  *time.Time     `gorm:"column:scheduled_at"`
	DeliveredAt  *time.Time     `gorm:"column:delivered_at"`
}
