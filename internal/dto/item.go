package dto

import (
	"time"

	"gorm.io/datatypes"
)

type CreateItemRequest struct {
	SKU         string         `json:"sku" binding:"required,min=1,max=64"`
	Name        string         `json:"name" binding:"required,min=1,max=200"`
	Description string         `json:"description" binding:"omitempty,max=1000"`
	Quantity    int            `json:"quantity" binding:"gte=0"`
	UnitPrice   float64        `json:"unit_price" binding:"gte=0"`
	Location    string         `json:"location" binding:"omitempty,max=100"`
	Attributes  datatypes.JSON `json:"attributes,omitempty"`
}

type UpdateItemRequest struct {
	Name        string         `json:"name" binding:"omitempty,min=1,max=200"`
	Description string         `json:"description" binding:"omitempty,max=1000"`
	UnitPrice   *float64       `json:"unit_price" binding:"omitempty,gte=0"`
	Location    string         `json:"location" binding:"omitempty,max=100"`
	Attributes  datatypes.JSON `json:"attributes,omitempty"`
}

type AdjustQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type ItemResponse struct {
	ID          uint           `json:"id"`
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Quantity    int            `json:"quantity"`
	UnitPrice   float64        `json:"unit_price"`
	Location    string         `json:"location,omitempty"`
	Attributes  datatypes.JSON `json:"attributes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
