package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/mailer"
)

type memInvitationStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*model.Invitation
}

func newMemInvitationStore() *memInvitationStore {
	return &memInvitationStore{nextID: 1, rows: map[uint]*model.Invitation{}}
}

func (s *memInvitationStore) Create(_ context.Context, inv *model.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = s.nextID
	s.nextID++
	clone := *inv
	s.rows[inv.ID] = &clone
	return nil
}

func (s *memInvitationStore) GetByID(_ context.Context, id uint) (*model.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *inv
	return &clone, nil
}

func (s *memInvitationStore) MarkAccepted(_ context.Context, id, acceptedBy uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.rows[id]
	if !ok || inv.Status != model.InvitationPending || time.Now().After(inv.ExpiresAt) {
		return gorm.ErrRecordNotFound
	}
	inv.Status = model.InvitationAccepted
	inv.AcceptedBy = &acceptedBy
	return nil
}

func (s *memInvitationStore) Reopen(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.rows[id]
	if !ok || inv.Status != model.InvitationAccepted {
		return gorm.ErrRecordNotFound
	}
	inv.Status = model.InvitationPending
	inv.AcceptedBy = nil
	return nil
}

func (s *memInvitationStore) Revoke(_ context.Context, orgID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.rows[id]
	if !ok || inv.OrganizationID != orgID || inv.Status != model.InvitationPending {
		return gorm.ErrRecordNotFound
	}
	inv.Status = model.InvitationRevoked
	return nil
}

func (s *memInvitationStore) ListByOrganization(_ context.Context, orgID uint, _, _ int) ([]model.Invitation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Invitation
	for _, inv := range s.rows {
		if inv.OrganizationID == orgID {
			out = append(out, *inv)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memInvitationStore) HasPending(_ context.Context, orgID uint, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.rows {
		if inv.OrganizationID == orgID && inv.Email == email &&
			inv.Status == model.InvitationPending && time.Now().Before(inv.ExpiresAt) {
			return true, nil
		}
	}
	return false, nil
}

type memMembershipStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*model.Membership // keyed by user id
}

func newMemMembershipStore() *memMembershipStore {
	return &memMembershipStore{nextID: 1, rows: map[uint]*model.Membership{}}
}

func (s *memMembershipStore) Create(_ context.Context, m *model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[m.UserID]; exists {
		return errors.New("duplicate membership")
	}
	m.ID = s.nextID
	s.nextID++
	clone := *m
	s.rows[m.UserID] = &clone
	return nil
}

func (s *memMembershipStore) GetByUserID(_ context.Context, userID uint) (*model.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *memMembershipStore) GetByOrgAndUser(_ context.Context, orgID, userID uint) (*model.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[userID]
	if !ok || m.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *memMembershipStore) ListByOrganization(_ context.Context, orgID uint, search string, _, _ int) ([]model.Membership, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Membership
	for _, m := range s.rows {
		if m.OrganizationID != orgID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.User.Email), strings.ToLower(search)) {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (s *memMembershipStore) UpdateRole(_ context.Context, orgID, userID uint, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[userID]
	if !ok || m.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	m.Role = role
	return nil
}

func (s *memMembershipStore) Delete(_ context.Context, orgID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[userID]
	if !ok || m.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, userID)
	return nil
}

func (s *memMembershipStore) CountByOrganization(_ context.Context, orgID uint) (int64, error) {
	_, total, err := s.ListByOrganization(context.Background(), orgID, "", 0, 0)
	return total, err
}

type employeeFixture struct {
	svc         *EmployeeService
	users       *memUserStore
	memberships *memMembershipStore
	invitations *memInvitationStore
}

func newEmployeeFixture() *employeeFixture {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = time.Minute
	cfg.JWT.InviteTokenTTL = 72 * time.Hour
	cfg.Cookie.Domain = "app.example.com"

	users := newMemUserStore()
	memberships := newMemMembershipStore()
	invitations := newMemInvitationStore()
	var mail mailer.Mailer = &chanMailer{
		otps:   make(chan string, 8),
		resets: make(chan string, 8),
	}
	svc := NewEmployeeService(invitations, memberships, users, NewTokenService(cfg), mail, cfg)
	return &employeeFixture{svc: svc, users: users, memberships: memberships, invitations: invitations}
}

func (f *employeeFixture) addUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{FirstName: "T", LastName: "User", Email: email, Password: "x", Verified: true}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *employeeFixture) addMember(t *testing.T, orgID uint, email string, role model.Role) *model.User {
	t.Helper()
	user := f.addUser(t, email)
	err := f.memberships.Create(context.Background(), &model.Membership{
		UserID:         user.ID,
		OrganizationID: orgID,
		Role:           role,
	})
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return user
}

func TestInviteAndAccept(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)
	invitee := f.addUser(t, "hire@example.com")

	inv, err := f.svc.SendInvite(context.Background(), 1, admin.ID, &dto.SendInviteRequest{
		EmpEmail: "hire@example.com",
		Role:     "staff",
	}, "Acme")
	if err != nil {
		t.Fatalf("SendInvite() error = %v", err)
	}
	if inv.Status != string(model.InvitationPending) {
		t.Errorf("invitation status = %q", inv.Status)
	}

	stored, err := f.invitations.GetByID(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("invitation row missing: %v", err)
	}
	token, err := f.svc.tokens.GenerateInviteToken(stored)
	if err != nil {
		t.Fatalf("GenerateInviteToken() error = %v", err)
	}

	employee, err := f.svc.AcceptInvite(context.Background(), invitee.ID, token)
	if err != nil {
		t.Fatalf("AcceptInvite() error = %v", err)
	}
	if employee.Role != "staff" || employee.OrganizationID != 1 {
		t.Errorf("unexpected employee: %+v", employee)
	}

	m, err := f.memberships.GetByUserID(context.Background(), invitee.ID)
	if err != nil {
		t.Fatalf("membership not created: %v", err)
	}
	if m.Role != model.RoleStaff {
		t.Errorf("membership role = %q", m.Role)
	}
}

func TestAcceptInviteEmailMismatch(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)
	imposter := f.addUser(t, "other@example.com")

	inv, err := f.svc.SendInvite(context.Background(), 1, admin.ID, &dto.SendInviteRequest{
		EmpEmail: "intended@example.com",
		Role:     "staff",
	}, "Acme")
	if err != nil {
		t.Fatalf("SendInvite() error = %v", err)
	}

	stored, _ := f.invitations.GetByID(context.Background(), inv.ID)
	token, _ := f.svc.tokens.GenerateInviteToken(stored)

	if _, err := f.svc.AcceptInvite(context.Background(), imposter.ID, token); !errors.Is(err, apperrors.ErrInviteEmailMismatch) {
		t.Fatalf("err = %v, want ErrInviteEmailMismatch", err)
	}

	// The failed accept must not consume the invitation
	fresh, _ := f.invitations.GetByID(context.Background(), inv.ID)
	if fresh.Status != model.InvitationPending {
		t.Errorf("invitation status after mismatch = %q, want pending", fresh.Status)
	}
}

func TestAcceptInviteSingleUse(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)
	first := f.addUser(t, "hire@example.com")

	inv, err := f.svc.SendInvite(context.Background(), 1, admin.ID, &dto.SendInviteRequest{
		EmpEmail: "hire@example.com",
		Role:     "manager",
	}, "Acme")
	if err != nil {
		t.Fatalf("SendInvite() error = %v", err)
	}
	stored, _ := f.invitations.GetByID(context.Background(), inv.ID)
	token, _ := f.svc.tokens.GenerateInviteToken(stored)

	if _, err := f.svc.AcceptInvite(context.Background(), first.ID, token); err != nil {
		t.Fatalf("first accept error = %v", err)
	}
	if _, err := f.svc.AcceptInvite(context.Background(), first.ID, token); !errors.Is(err, apperrors.ErrTokenAlreadyUsed) {
		t.Fatalf("second accept err = %v, want ErrTokenAlreadyUsed", err)
	}
}

// failingMembershipStore makes the next Create calls fail, standing in
// for a unique-index violation or transient database error
type failingMembershipStore struct {
	*memMembershipStore
	failures int
}

func (s *failingMembershipStore) Create(ctx context.Context, m *model.Membership) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("membership insert failed")
	}
	return s.memMembershipStore.Create(ctx, m)
}

func TestAcceptInviteSurvivesMembershipInsertFailure(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)
	invitee := f.addUser(t, "hire@example.com")

	inv, err := f.svc.SendInvite(context.Background(), 1, admin.ID, &dto.SendInviteRequest{
		EmpEmail: "hire@example.com",
		Role:     "staff",
	}, "Acme")
	if err != nil {
		t.Fatalf("SendInvite() error = %v", err)
	}
	stored, _ := f.invitations.GetByID(context.Background(), inv.ID)
	token, _ := f.svc.tokens.GenerateInviteToken(stored)

	flakyStore := &failingMembershipStore{memMembershipStore: f.memberships, failures: 1}
	flaky := NewEmployeeService(f.invitations, flakyStore, f.users, f.svc.tokens, f.svc.mail, f.svc.cfg)

	if _, err := flaky.AcceptInvite(context.Background(), invitee.ID, token); err == nil {
		t.Fatal("accept succeeded despite the failed membership insert")
	}

	// The failed accept must not burn the invitation
	after, err := f.invitations.GetByID(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if after.Status != model.InvitationPending {
		t.Fatalf("invitation status = %q, want pending after rollback", after.Status)
	}
	if after.AcceptedBy != nil {
		t.Error("accepted_by not cleared by the rollback")
	}

	// Retrying with a healthy store completes the join
	if _, err := f.svc.AcceptInvite(context.Background(), invitee.ID, token); err != nil {
		t.Fatalf("retry AcceptInvite() error = %v", err)
	}
	if _, err := f.memberships.GetByUserID(context.Background(), invitee.ID); err != nil {
		t.Fatalf("membership missing after retry: %v", err)
	}
}

func TestManagerCannotInviteAdmin(t *testing.T) {
	f := newEmployeeFixture()
	manager := f.addMember(t, 1, "manager@example.com", model.RoleManager)

	_, err := f.svc.SendInvite(context.Background(), 1, manager.ID, &dto.SendInviteRequest{
		EmpEmail: "coup@example.com",
		Role:     "admin",
	}, "Acme")
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestStaffCannotInvite(t *testing.T) {
	f := newEmployeeFixture()
	staff := f.addMember(t, 1, "staff@example.com", model.RoleStaff)

	_, err := f.svc.SendInvite(context.Background(), 1, staff.ID, &dto.SendInviteRequest{
		EmpEmail: "friend@example.com",
		Role:     "staff",
	}, "Acme")
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestDuplicatePendingInvite(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)

	req := &dto.SendInviteRequest{EmpEmail: "hire@example.com", Role: "staff"}
	if _, err := f.svc.SendInvite(context.Background(), 1, admin.ID, req, "Acme"); err != nil {
		t.Fatalf("first invite error = %v", err)
	}
	if _, err := f.svc.SendInvite(context.Background(), 1, admin.ID, req, "Acme"); !errors.Is(err, apperrors.ErrInvitePending) {
		t.Fatalf("second invite err = %v, want ErrInvitePending", err)
	}
}

func TestRemoveEmployeeGuards(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)
	staff := f.addMember(t, 1, "staff@example.com", model.RoleStaff)

	// Self removal is refused
	if err := f.svc.RemoveEmployee(context.Background(), 1, admin.ID, admin.ID); !errors.Is(err, apperrors.ErrSelfDeletion) {
		t.Fatalf("self removal err = %v, want ErrSelfDeletion", err)
	}

	// Staff cannot remove anyone
	if err := f.svc.RemoveEmployee(context.Background(), 1, staff.ID, admin.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("staff removal err = %v, want ErrForbidden", err)
	}

	// Admin removes staff
	if err := f.svc.RemoveEmployee(context.Background(), 1, admin.ID, staff.ID); err != nil {
		t.Fatalf("RemoveEmployee() error = %v", err)
	}
	if _, err := f.memberships.GetByUserID(context.Background(), staff.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Error("membership still present after removal")
	}
}

func TestUpdateRoleCannotTouchAdmin(t *testing.T) {
	f := newEmployeeFixture()
	admin := f.addMember(t, 1, "admin@example.com", model.RoleAdmin)
	f.addMember(t, 1, "staff@example.com", model.RoleStaff)

	if err := f.svc.UpdateRole(context.Background(), 1, admin.ID, admin.ID, model.RoleStaff); !errors.Is(err, apperrors.ErrAdminRemoval) {
		t.Fatalf("demoting admin err = %v, want ErrAdminRemoval", err)
	}
	if err := f.svc.UpdateRole(context.Background(), 1, admin.ID, admin.ID, model.RoleAdmin); !errors.Is(err, apperrors.ErrInvalidRole) {
		t.Fatalf("assigning admin role err = %v, want ErrInvalidRole", err)
	}
}
