package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	Phone     string    `gorm:"column:phone"`
	Email     string    `gorm:"column:email;unique;not null"`
	Password  string    `gorm:"column:password;not null"`
	Verified  bool      `gorm:"column:verified;default:false;not null"`
	LastLogin time.Time `gorm:"column:last_login"`

	// Email verification code, cleared once consumed
	OTPHash    string     `gorm:"column:otp_hash;default:null"`
	OTPExpires *time.Time `gorm:"column:otp_expires_at;default:null"`

	// Password reset token (SHA-256 digest), at most one active per user
	ResetTokenHash    string     `gorm:"column:reset_token_hash;default:null;index:idx_users_reset_token_hash,where:reset_token_hash IS NOT NULL"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires_at;default:null"`

	// Refresh token rotation state. The hash is a deterministic SHA-256
	// digest so rotation can be a single guarded update.
	TokenVersion        int        `gorm:"column:token_version;default:1;not null"`
	RefreshTokenHash    string     `gorm:"column:refresh_token_hash;default:null;index:idx_users_refresh_token_hash,where:refresh_token_hash IS NOT NULL"`
	RefreshTokenExpires *time.Time `gorm:"column:refresh_token_expires_at;default:null;index:idx_users_token_cleanup,where:refresh_token_expires_at IS NOT NULL"`
}
