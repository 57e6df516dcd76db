package dto

import "time"

// OrgSummaryReport aggregates organization activity for dashboards
type OrgSummaryReport struct {
	OrganizationID uint             `json:"organization_id"`
	Employees      int64            `json:"employees"`
	Items          int64            `json:"items"`
	StockUnits     int64            `json:"stock_units"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
