package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

type OrganizationStore interface {
	Create(ctx context.Context, org *model.Organization) error
	GetByID(ctx context.Context, id uint) (*model.Organization, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	TransferOwnership(ctx context.Context, orgID, currentAdminID, newAdminID uint) error
}

type OrganizationService struct {
	orgs        OrganizationStore
	memberships MembershipStore
}

func NewOrganizationService(orgs OrganizationStore, memberships MembershipStore) *OrganizationService {
	return &OrganizationService{orgs: orgs, memberships: memberships}
}

// Create founds a new organization with the caller as its admin. A user
// already belonging to an organization cannot found another.
func (s *OrganizationService) Create(ctx context.Context, userID uint, req *dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	if _, err := s.memberships.GetByUserID(ctx, userID); err == nil {
		return nil, apperrors.ErrAlreadyMember
	}

	org := &model.Organization{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		AdminID:     userID,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "organization created").
		Uint("organization_id", org.ID).
		Uint("admin_id", userID).
		Log()
	return toOrganizationResponse(org), nil
}

func (s *OrganizationService) Get(ctx context.Context, orgID uint) (*dto.OrganizationResponse, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrgNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toOrganizationResponse(org), nil
}

func (s *OrganizationService) Update(ctx context.Context, orgID, actorID uint, req *dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrgNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if org.AdminID != actorID {
		return nil, apperrors.ErrForbidden
	}

	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Type != "" {
		fields["type"] = req.Type
	}
	if len(fields) > 0 {
		if err := s.orgs.Update(ctx, orgID, fields); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}
	return s.Get(ctx, orgID)
}

// Delete removes the organization along with its memberships and any
// pending invitations. Only the admin can do this.
func (s *OrganizationService) Delete(ctx context.Context, orgID, actorID uint) error {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrOrgNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if org.AdminID != actorID {
		return apperrors.ErrForbidden
	}

	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "organization deleted").
		Uint("organization_id", orgID).
		Uint("admin_id", actorID).
		Log()
	return nil
}

// TransferOwnership hands the admin seat to another member. The swap is
// transactional and guarded on the current admin, so the organization
// always has exactly one admin.
func (s *OrganizationService) TransferOwnership(ctx context.Context, orgID, actorID, newAdminID uint) error {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrOrgNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if org.AdminID != actorID {
		return apperrors.ErrForbidden
	}
	if newAdminID == actorID {
		return apperrors.ErrInvalidInput
	}

	if _, err := s.memberships.GetByOrgAndUser(ctx, orgID, newAdminID); err != nil {
		return apperrors.ErrNotMember
	}

	if err := s.orgs.TransferOwnership(ctx, orgID, actorID, newAdminID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Another transfer won the race
			return apperrors.ErrForbidden
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "ownership transferred").
		Uint("organization_id", orgID).
		Uint("from", actorID).
		Uint("to", newAdminID).
		Log()
	return nil
}

func toOrganizationResponse(org *model.Organization) *dto.OrganizationResponse {
	return &dto.OrganizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		Type:        org.Type,
		AdminID:     org.AdminID,
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
}
