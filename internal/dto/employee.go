package dto

import "time"

type SendInviteRequest struct {
	EmpEmail string `json:"emp_email" binding:"required,email"`
	Role     string `json:"role" binding:"required,orgrole"`
}

type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,orgrole"`
}

// EmployeeResponse is a membership joined with its user record
type EmployeeResponse struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	OrganizationID uint      `json:"organization_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
}

type InvitationResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
