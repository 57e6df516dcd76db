package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/model"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) GetByID(ctx context.Context, id uint) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkAccepted flips pending to accepted with a status guard, so two
// concurrent accepts of the same invitation cannot both succeed.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id, acceptedBy uint) error {
	result := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, model.InvitationPending, time.Now()).
		Updates(map[string]any{
			"status":      model.InvitationAccepted,
			"accepted_by": acceptedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Reopen rolls an accepted invitation back to pending. Used when the
// membership insert after the accept fails, so the invite can be
// retried instead of being burned.
func (r *InvitationRepository) Reopen(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationAccepted).
		Updates(map[string]any{
			"status":      model.InvitationPending,
			"accepted_by": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InvitationRepository) Revoke(ctx context.Context, orgID, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("id = ? AND organization_id = ? AND status = ?", id, orgID, model.InvitationPending).
		Update("status", model.InvitationRevoked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InvitationRepository) ListByOrganization(ctx context.Context, orgID uint, offset, limit int) ([]model.Invitation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("organization_id = ?", orgID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invitations []model.Invitation
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&invitations).Error
	if err != nil {
		return nil, 0, err
	}
	return invitations, total, nil
}

// HasPending reports whether an unexpired pending invitation already
// exists for the email in this organization.
func (r *InvitationRepository) HasPending(ctx context.Context, orgID uint, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("organization_id = ? AND email = ? AND status = ? AND expires_at > ?",
			orgID, email, model.InvitationPending, time.Now()).
		Count(&count).Error
	return count > 0, err
}
