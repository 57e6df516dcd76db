package model

import "gorm.io/gorm"

// Role is the closed set of membership roles
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// ValidRole reports whether the role belongs to the closed enum
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

type Organization struct {
	gorm.Model
	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description"`
	Type        string `gorm:"column:type"`
	// Exactly one admin at any time; changed only by TransferOwnership
	AdminID uint `gorm:"column:admin_id;not null;index"`
}

// Membership links a user to the organization they work for. A user holds
// at most one membership; the unique index enforces it.
type Membership struct {
	gorm.Model
	UserID         uint `gorm:"column:user_id;not null;uniqueIndex:idx_memberships_user"`
	OrganizationID uint `gorm:"column:organization_id;not null;index"`
	Role           Role `gorm:"column:role;type:varchar(20);not null"`

	User         User         `gorm:"foreignKey:UserID"`
	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
