package dto

import "time"

type CreateOrganizationRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	Type        string `json:"type" binding:"omitempty,max=50"`
}

type UpdateOrganizationRequest struct {
	Name        string `json:"name" binding:"omitempty,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	Type        string `json:"type" binding:"omitempty,max=50"`
}

type TransferOwnershipRequest struct {
	NewAdminID uint `json:"new_admin_id" binding:"required"`
}

type OrganizationResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	AdminID     uint      `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
