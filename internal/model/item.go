package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Item struct {
	gorm.Model
	OrganizationID uint           `gorm:"column:organization_id;not null;uniqueIndex:idx_items_org_sku"`
	SKU            string         `gorm:"column:sku;not null;uniqueIndex:idx_items_org_sku"`
	Name           string         `gorm:"column:name;not null"`
	Description    string         `gorm:"column:description"`
	Quantity       int            `gorm:"column:quantity;default:0;not null"`
	UnitPrice      float64        `gorm:"column:unit_price;default:0;not null"`
	Location       string         `gorm:"column:location"`
	Attributes     datatypes.JSON `gorm:"column:attributes"`
}
