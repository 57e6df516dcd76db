package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePassword replaces the hash and bumps the token version so every
// previously issued access token stops validating.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password":                 passwordHash,
			"token_version":            gorm.Expr("token_version + 1"),
			"refresh_token_hash":       nil,
			"refresh_token_expires_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", time.Now()).Error
}

func (r *UserRepository) SetOTP(ctx context.Context, id uint, otpHash string, expires time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"otp_hash":       otpHash,
			"otp_expires_at": expires,
		}).Error
}

// ConsumeOTP verifies and clears the code in one guarded update so a
// correct code works exactly once.
func (r *UserRepository) ConsumeOTP(ctx context.Context, id uint, otpHash string) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND otp_hash = ? AND otp_expires_at > ?", id, otpHash, time.Now()).
		Updates(map[string]any{
			"verified":       true,
			"otp_hash":       nil,
			"otp_expires_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": expires,
		}).Error
}

// ConsumeResetToken atomically matches the unexpired token digest,
// replaces the password, clears the token, bumps the token version and
// drops any live refresh token. Zero rows means the token was invalid,
// expired, or already used.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, time.Now()).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_token_hash = ?", user.ID, tokenHash).
		Updates(map[string]any{
			"password":                 passwordHash,
			"reset_token_hash":         nil,
			"reset_token_expires_at":   nil,
			"token_version":            gorm.Expr("token_version + 1"),
			"refresh_token_hash":       nil,
			"refresh_token_expires_at": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	// Reflect the update so callers can mint tokens against the new
	// password and version without another round trip.
	user.Password = passwordHash
	user.TokenVersion++
	user.ResetTokenHash = ""
	user.ResetTokenExpires = nil
	user.RefreshTokenHash = ""
	user.RefreshTokenExpires = nil
	return &user, nil
}

func (r *UserRepository) StoreRefreshToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"refresh_token_hash":       tokenHash,
			"refresh_token_expires_at": expires,
		}).Error
}

// RotateRefreshToken swaps the stored digest only when the presented one
// still matches. Concurrent rotations race on the guard; exactly one
// wins and the rest see zero rows.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, oldHash, newHash string, expires time.Time) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND refresh_token_expires_at > ?", oldHash, time.Now()).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token_hash = ?", user.ID, oldHash).
		Updates(map[string]any{
			"refresh_token_hash":       newHash,
			"refresh_token_expires_at": expires,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

// ClearRefreshToken revokes the session server side and bumps the token
// version so outstanding access tokens die with it.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"refresh_token_hash":       nil,
			"refresh_token_expires_at": nil,
			"token_version":            gorm.Expr("token_version + 1"),
		}).Error
}
