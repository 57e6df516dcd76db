package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/logger"
	"github.com/Stockline-Systems/inventory/pkg/mailer"
)

type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByID(ctx context.Context, id uint) (*model.Invitation, error)
	MarkAccepted(ctx context.Context, id, acceptedBy uint) error
	Reopen(ctx context.Context, id uint) error
	Revoke(ctx context.Context, orgID, id uint) error
	ListByOrganization(ctx context.Context, orgID uint, offset, limit int) ([]model.Invitation, int64, error)
	HasPending(ctx context.Context, orgID uint, email string) (bool, error)
}

type MembershipStore interface {
	Create(ctx context.Context, m *model.Membership) error
	GetByUserID(ctx context.Context, userID uint) (*model.Membership, error)
	GetByOrgAndUser(ctx context.Context, orgID, userID uint) (*model.Membership, error)
	ListByOrganization(ctx context.Context, orgID uint, search string, offset, limit int) ([]model.Membership, int64, error)
	UpdateRole(ctx context.Context, orgID, userID uint, role model.Role) error
	Delete(ctx context.Context, orgID, userID uint) error
	CountByOrganization(ctx context.Context, orgID uint) (int64, error)
}

// UserDirectory is the read-only user lookup other services need
type UserDirectory interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type EmployeeService struct {
	invitations InvitationStore
	memberships MembershipStore
	users       UserDirectory
	tokens      *TokenService
	mail        mailer.Mailer
	cfg         *config.Config
}

func NewEmployeeService(invitations InvitationStore, memberships MembershipStore, users UserDirectory, tokens *TokenService, mail mailer.Mailer, cfg *config.Config) *EmployeeService {
	return &EmployeeService{
		invitations: invitations,
		memberships: memberships,
		users:       users,
		tokens:      tokens,
		mail:        mail,
		cfg:         cfg,
	}
}

// SendInvite creates the single-use invitation record and mails a
// signed token bound to the invitee's email, role and organization.
// Admins and managers may invite; managers cannot invite admins.
func (s *EmployeeService) SendInvite(ctx context.Context, orgID, inviterID uint, req *dto.SendInviteRequest, orgName string) (*dto.InvitationResponse, error) {
	role := model.Role(req.Role)
	if !model.ValidRole(role) {
		return nil, apperrors.ErrInvalidRole
	}

	inviter, err := s.memberships.GetByOrgAndUser(ctx, orgID, inviterID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}
	switch inviter.Role {
	case model.RoleAdmin:
	case model.RoleManager:
		if role == model.RoleAdmin {
			return nil, apperrors.ErrForbidden
		}
	default:
		return nil, apperrors.ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(req.EmpEmail))
	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		if _, err := s.memberships.GetByUserID(ctx, existing.ID); err == nil {
			return nil, apperrors.ErrAlreadyMember
		}
	}

	if pending, err := s.invitations.HasPending(ctx, orgID, email); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	} else if pending {
		return nil, apperrors.ErrInvitePending
	}

	inv := &model.Invitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		InviterID:      inviterID,
		Status:         model.InvitationPending,
		ExpiresAt:      time.Now().Add(s.cfg.JWT.InviteTokenTTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token, err := s.tokens.GenerateInviteToken(inv)
	if err != nil {
		return nil, err
	}

	inviteURL := fmt.Sprintf("https://%s/accept-invite?token=%s", s.cfg.Cookie.Domain, token)
	go func() {
		if err := s.mail.SendInvite(inv.Email, orgName, string(inv.Role), inviteURL); err != nil {
			logger.GetLogger().Sugar().Errorw("invite mail failed", "error", err)
		}
	}()

	logger.InfoWithContext(ctx, "invitation sent").
		Uint("organization_id", orgID).
		Uint("invitation_id", inv.ID).
		String("role", string(inv.Role)).
		Log()
	return toInvitationResponse(inv), nil
}

// AcceptInvite joins the caller to the inviting organization. The token
// must match the caller's email exactly, and the pending->accepted flip
// on the invitation row makes a token unusable the moment it succeeds.
func (s *EmployeeService) AcceptInvite(ctx context.Context, userID uint, token string) (*dto.EmployeeResponse, error) {
	claims, err := s.tokens.ValidateInviteToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound
	}
	if user.Email != claims.Email {
		return nil, apperrors.ErrInviteEmailMismatch
	}

	inv, err := s.invitations.GetByID(ctx, claims.InvitationID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if inv.Status == model.InvitationAccepted {
		return nil, apperrors.ErrTokenAlreadyUsed
	}
	if inv.Status != model.InvitationPending || time.Now().After(inv.ExpiresAt) {
		return nil, apperrors.ErrInvalidToken
	}

	if _, err := s.memberships.GetByUserID(ctx, userID); err == nil {
		return nil, apperrors.ErrAlreadyMember
	}

	if err := s.invitations.MarkAccepted(ctx, inv.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race to a concurrent accept
			return nil, apperrors.ErrTokenAlreadyUsed
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	membership := &model.Membership{
		UserID:         userID,
		OrganizationID: inv.OrganizationID,
		Role:           inv.Role,
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		// Roll the status flip back so the invitation is not burned by
		// a failed membership insert and the token can be retried
		if reopenErr := s.invitations.Reopen(ctx, inv.ID); reopenErr != nil {
			logger.ErrorWithContext(ctx, "invitation stuck accepted without membership").
				Uint("invitation_id", inv.ID).
				Err(reopenErr).
				Log()
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "invitation accepted").
		Uint("organization_id", inv.OrganizationID).
		Uint("user_id", userID).
		Log()
	return &dto.EmployeeResponse{
		ID:             membership.ID,
		UserID:         userID,
		OrganizationID: inv.OrganizationID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Role:           string(inv.Role),
		JoinedAt:       membership.CreatedAt,
	}, nil
}

func (s *EmployeeService) ListEmployees(ctx context.Context, orgID uint, search string, offset, limit int) ([]dto.EmployeeResponse, int64, error) {
	memberships, total, err := s.memberships.ListByOrganization(ctx, orgID, search, offset, limit)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	employees := make([]dto.EmployeeResponse, 0, len(memberships))
	for _, m := range memberships {
		employees = append(employees, dto.EmployeeResponse{
			ID:             m.ID,
			UserID:         m.UserID,
			OrganizationID: m.OrganizationID,
			FirstName:      m.User.FirstName,
			LastName:       m.User.LastName,
			Email:          m.User.Email,
			Role:           string(m.Role),
			JoinedAt:       m.CreatedAt,
		})
	}
	return employees, total, nil
}

func (s *EmployeeService) ListInvitations(ctx context.Context, orgID uint, offset, limit int) ([]dto.InvitationResponse, int64, error) {
	invitations, total, err := s.invitations.ListByOrganization(ctx, orgID, offset, limit)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.InvitationResponse, 0, len(invitations))
	for i := range invitations {
		responses = append(responses, *toInvitationResponse(&invitations[i]))
	}
	return responses, total, nil
}

func (s *EmployeeService) RevokeInvite(ctx context.Context, orgID, actorID, invitationID uint) error {
	if err := s.requireAdmin(ctx, orgID, actorID); err != nil {
		return err
	}
	if err := s.invitations.Revoke(ctx, orgID, invitationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// UpdateRole changes an employee's role. The admin seat itself only
// moves through ownership transfer.
func (s *EmployeeService) UpdateRole(ctx context.Context, orgID, actorID, targetUserID uint, role model.Role) error {
	if !model.ValidRole(role) || role == model.RoleAdmin {
		return apperrors.ErrInvalidRole
	}
	if err := s.requireAdmin(ctx, orgID, actorID); err != nil {
		return err
	}

	target, err := s.memberships.GetByOrgAndUser(ctx, orgID, targetUserID)
	if err != nil {
		return apperrors.ErrNotMember
	}
	if target.Role == model.RoleAdmin {
		return apperrors.ErrAdminRemoval
	}

	if err := s.memberships.UpdateRole(ctx, orgID, targetUserID, role); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "employee role updated").
		Uint("organization_id", orgID).
		Uint("user_id", targetUserID).
		String("role", string(role)).
		Log()
	return nil
}

func (s *EmployeeService) RemoveEmployee(ctx context.Context, orgID, actorID, targetUserID uint) error {
	if err := s.requireAdmin(ctx, orgID, actorID); err != nil {
		return err
	}
	if actorID == targetUserID {
		return apperrors.ErrSelfDeletion
	}

	target, err := s.memberships.GetByOrgAndUser(ctx, orgID, targetUserID)
	if err != nil {
		return apperrors.ErrNotMember
	}
	if target.Role == model.RoleAdmin {
		return apperrors.ErrAdminRemoval
	}

	if err := s.memberships.Delete(ctx, orgID, targetUserID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "employee removed").
		Uint("organization_id", orgID).
		Uint("user_id", targetUserID).
		Log()
	return nil
}

func (s *EmployeeService) requireAdmin(ctx context.Context, orgID, userID uint) error {
	m, err := s.memberships.GetByOrgAndUser(ctx, orgID, userID)
	if err != nil || m.Role != model.RoleAdmin {
		return apperrors.ErrForbidden
	}
	return nil
}

func toInvitationResponse(inv *model.Invitation) *dto.InvitationResponse {
	return &dto.InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}
