package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/model"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts the organization and the founder's admin membership in
// one transaction.
func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		membership := &model.Membership{
			UserID:         org.AdminID,
			OrganizationID: org.ID,
			Role:           model.RoleAdmin,
		}
		return tx.Create(membership).Error
	})
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.Organization{}).
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

// Delete removes the organization together with its memberships and any
// invitations still pending, in one transaction.
func (r *OrganizationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", id).
			Delete(&model.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ? AND status = ?", id, model.InvitationPending).
			Delete(&model.Invitation{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Organization{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// TransferOwnership moves the admin seat to another member atomically:
// the org's admin_id flips, the old admin demotes to manager and the
// new admin's membership promotes, all or nothing. The guard on the
// current admin id keeps two concurrent transfers from both applying.
func (r *OrganizationRepository) TransferOwnership(ctx context.Context, orgID, currentAdminID, newAdminID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Organization{}).
			Where("id = ? AND admin_id = ?", orgID, currentAdminID).
			Update("admin_id", newAdminID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		promote := tx.Model(&model.Membership{}).
			Where("organization_id = ? AND user_id = ?", orgID, newAdminID).
			Update("role", model.RoleAdmin)
		if promote.Error != nil {
			return promote.Error
		}
		if promote.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&model.Membership{}).
			Where("organization_id = ? AND user_id = ?", orgID, currentAdminID).
			Update("role", model.RoleManager).Error
	})
}

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *model.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MembershipRepository) GetByUserID(ctx context.Context, userID uint) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) GetByOrgAndUser(ctx context.Context, orgID, userID uint) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByOrganization pages through the org's members, optionally
// filtered by a case-insensitive substring over name and email.
func (r *MembershipRepository) ListByOrganization(ctx context.Context, orgID uint, search string, offset, limit int) ([]model.Membership, int64, error) {
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&model.Membership{}).
			Joins("JOIN users ON users.id = memberships.user_id AND users.deleted_at IS NULL").
			Where("memberships.organization_id = ?", orgID)
		if search != "" {
			pattern := "%" + search + "%"
			query = query.Where(
				"users.first_name ILIKE ? OR users.last_name ILIKE ? OR users.email ILIKE ?",
				pattern, pattern, pattern,
			)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var memberships []model.Membership
	err := filtered().
		Preload("User").
		Order("memberships.created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&memberships).Error
	if err != nil {
		return nil, 0, err
	}
	return memberships, total, nil
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, orgID, userID uint, role model.Role) error {
	result := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, orgID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&model.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MembershipRepository) CountByOrganization(ctx context.Context, orgID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("organization_id = ?", orgID).
		Count(&count).Error
	return count, err
}
