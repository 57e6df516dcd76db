package model

import (
	"time"

	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation is the persisted single-use record behind an invite token.
// The signed token only carries the row id plus the invite claims; the
// pending->accepted flip is what makes the token single-use.
type Invitation struct {
	gorm.Model
	OrganizationID uint             `gorm:"column:organization_id;not null;index"`
	Email          string           `gorm:"column:email;not null;index"`
	Role           Role             `gorm:"column:role;type:varchar(20);not null"`
	InviterID      uint             `gorm:"column:inviter_id;not null"`
	Status         InvitationStatus `gorm:"column:status;type:varchar(20);default:'pending';not null"`
	ExpiresAt      time.Time        `gorm:"column:expires_at;not null;index"`
	AcceptedBy     *uint            `gorm:"column:accepted_by;default:null"`
}
