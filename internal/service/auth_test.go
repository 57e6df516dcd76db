package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
)

// memUserStore is an in-memory UserStore with the same guarded-update
// semantics as the real repository: single-use operations succeed for
// exactly one caller under concurrency.
type memUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: map[uint]*model.User{}}
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	user.ID = s.nextID
	s.nextID++
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memUserStore) UpdateProfile(_ context.Context, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["first_name"]; ok {
		u.FirstName = v.(string)
	}
	if v, ok := fields["last_name"]; ok {
		u.LastName = v.(string)
	}
	if v, ok := fields["phone"]; ok {
		u.Phone = v.(string)
	}
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id uint, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = passwordHash
	u.TokenVersion++
	u.RefreshTokenHash = ""
	u.RefreshTokenExpires = nil
	return nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLogin = time.Now()
	}
	return nil
}

func (s *memUserStore) SetOTP(_ context.Context, id uint, otpHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.OTPHash = otpHash
	u.OTPExpires = &expires
	return nil
}

func (s *memUserStore) ConsumeOTP(_ context.Context, id uint, otpHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.OTPHash == "" || u.OTPHash != otpHash ||
		u.OTPExpires == nil || time.Now().After(*u.OTPExpires) {
		return gorm.ErrRecordNotFound
	}
	u.Verified = true
	u.OTPHash = ""
	u.OTPExpires = nil
	return nil
}

func (s *memUserStore) SetResetToken(_ context.Context, id uint, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.ResetTokenHash = tokenHash
	u.ResetTokenExpires = &expires
	return nil
}

func (s *memUserStore) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetTokenHash == tokenHash && u.ResetTokenHash != "" &&
			u.ResetTokenExpires != nil && time.Now().Before(*u.ResetTokenExpires) {
			u.Password = passwordHash
			u.ResetTokenHash = ""
			u.ResetTokenExpires = nil
			u.TokenVersion++
			u.RefreshTokenHash = ""
			u.RefreshTokenExpires = nil
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) StoreRefreshToken(_ context.Context, id uint, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.RefreshTokenHash = tokenHash
	u.RefreshTokenExpires = &expires
	return nil
}

func (s *memUserStore) RotateRefreshToken(_ context.Context, oldHash, newHash string, expires time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.RefreshTokenHash == oldHash && u.RefreshTokenHash != "" &&
			u.RefreshTokenExpires != nil && time.Now().Before(*u.RefreshTokenExpires) {
			u.RefreshTokenHash = newHash
			u.RefreshTokenExpires = &expires
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) ClearRefreshToken(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.RefreshTokenHash = ""
	u.RefreshTokenExpires = nil
	u.TokenVersion++
	return nil
}

// memLimiter is an in-memory AttemptLimiter
type memLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemLimiter() *memLimiter {
	return &memLimiter{counts: map[string]int64{}}
}

func (l *memLimiter) IncrementWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key], nil
}

func (l *memLimiter) Delete(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		delete(l.counts, key)
	}
	return nil
}

// chanMailer delivers sent mail onto channels so tests can wait for the
// async send goroutines.
type chanMailer struct {
	otps   chan string
	resets chan string
}

func newChanMailer() *chanMailer {
	return &chanMailer{
		otps:   make(chan string, 8),
		resets: make(chan string, 8),
	}
}

func (m *chanMailer) SendOTP(_, _, otp string) error {
	m.otps <- otp
	return nil
}

func (m *chanMailer) SendPasswordReset(_, _, resetURL string) error {
	m.resets <- resetURL
	return nil
}

func (m *chanMailer) SendInvite(_, _, _, _ string) error {
	return nil
}

func (m *chanMailer) waitOTP(t *testing.T) string {
	t.Helper()
	select {
	case otp := <-m.otps:
		return otp
	case <-time.After(2 * time.Second):
		t.Fatal("no OTP mail received")
		return ""
	}
}

func (m *chanMailer) waitResetToken(t *testing.T) string {
	t.Helper()
	select {
	case resetURL := <-m.resets:
		u, err := url.Parse(resetURL)
		if err != nil {
			t.Fatalf("bad reset URL %q: %v", resetURL, err)
		}
		return u.Query().Get("token")
	case <-time.After(2 * time.Second):
		t.Fatal("no reset mail received")
		return ""
	}
}

func newTestAuthService() (*AuthService, *memUserStore, *chanMailer) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	cfg.JWT.ResetTokenTTL = 15 * time.Minute
	cfg.JWT.OTPTTL = 10 * time.Minute
	cfg.JWT.OTPMaxAttempts = 5
	cfg.Cookie.Domain = "app.example.com"

	store := newMemUserStore()
	mail := newChanMailer()
	svc := NewAuthService(store, NewTokenService(cfg), newMemLimiter(), mail, cfg)
	return svc, store, mail
}

func signupUser(t *testing.T, svc *AuthService, email string) *dto.UserResponse {
	t.Helper()
	pair, _, err := svc.Signup(context.Background(), &dto.SignupRequest{
		FirstName:       "Grace",
		LastName:        "Hopper",
		Email:           email,
		Password:        "correct horse battery",
		ConfirmPassword: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	return &pair.User
}

func TestSignupNeverReturnsPasswordMaterial(t *testing.T) {
	svc, store, mail := newTestAuthService()

	user := signupUser(t, svc, "grace@example.com")
	mail.waitOTP(t)

	if user.Email != "grace@example.com" || user.ID == 0 {
		t.Fatalf("unexpected response: %+v", user)
	}

	stored, err := store.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Password == "correct horse battery" {
		t.Fatal("password stored in plain text")
	}
	if !strings.HasPrefix(stored.Password, "$2") {
		t.Errorf("stored password is not a bcrypt hash: %q", stored.Password[:4])
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "dup@example.com")
	mail.waitOTP(t)

	_, _, err := svc.Signup(context.Background(), &dto.SignupRequest{
		FirstName:       "Second",
		LastName:        "User",
		Email:           "dup@example.com",
		Password:        "another password",
		ConfirmPassword: "another password",
	})
	if !errors.Is(err, apperrors.ErrEmailExists) {
		t.Fatalf("duplicate signup error = %v, want ErrEmailExists", err)
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	svc, _, _ := newTestAuthService()
	_, _, err := svc.Signup(context.Background(), &dto.SignupRequest{
		FirstName:       "A",
		LastName:        "B",
		Email:           "x@example.com",
		Password:        "one password",
		ConfirmPassword: "another password",
	})
	if !errors.Is(err, apperrors.ErrPasswordMismatch) {
		t.Fatalf("error = %v, want ErrPasswordMismatch", err)
	}
}

func TestSignupSignsTheUserIn(t *testing.T) {
	svc, _, mail := newTestAuthService()

	pair, refresh, err := svc.Signup(context.Background(), &dto.SignupRequest{
		FirstName:       "Fresh",
		LastName:        "Account",
		Email:           "Fresh@Example.COM ",
		Password:        "correct horse battery",
		ConfirmPassword: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	mail.waitOTP(t)

	if pair.User.Email != "fresh@example.com" {
		t.Errorf("email not normalized: %q", pair.User.Email)
	}
	if pair.Token == "" {
		t.Error("no access token issued on signup")
	}
	if _, _, err := svc.Refresh(context.Background(), refresh); err != nil {
		t.Errorf("signup refresh token rejected: %v", err)
	}
}

func TestLoginDoesNotRevealWhichPartWasWrong(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "known@example.com")
	mail.waitOTP(t)

	_, _, unknownErr := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	_, _, wrongPassErr := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "known@example.com",
		Password: "wrong password",
	})

	if !errors.Is(unknownErr, apperrors.ErrInvalidCredentials) {
		t.Fatalf("unknown email error = %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, apperrors.ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v", wrongPassErr)
	}
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Errorf("error messages differ: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestLoginIssuesWorkingTokenPair(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "login@example.com")
	mail.waitOTP(t)

	pair, refresh, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "login@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if pair.Token == "" || refresh == "" {
		t.Fatal("empty token pair")
	}
	if pair.RefreshToken != refresh {
		t.Error("body refresh token differs from cookie refresh token")
	}

	claims, err := svc.tokens.ValidateAccessToken(pair.Token)
	if err != nil {
		t.Fatalf("issued access token does not validate: %v", err)
	}
	if claims.Email != "login@example.com" {
		t.Errorf("claims.Email = %q", claims.Email)
	}
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "rotate@example.com")
	mail.waitOTP(t)

	_, refresh, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "rotate@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_, next, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	if next == refresh {
		t.Fatal("refresh token was not rotated")
	}

	// The old token is dead the instant rotation succeeds
	if _, _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Fatalf("second use of rotated token: err = %v, want ErrInvalidRefreshToken", err)
	}

	// The replacement still works
	if _, _, err := svc.Refresh(context.Background(), next); err != nil {
		t.Fatalf("rotated token rejected: %v", err)
	}
}

func TestConcurrentRefreshExactlyOneWins(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "race@example.com")
	mail.waitOTP(t)

	_, refresh, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "race@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Refresh(context.Background(), refresh)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
			losses++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if losses != workers-1 {
		t.Fatalf("losses = %d, want %d", losses, workers-1)
	}
}

func TestLogoutInvalidatesRefreshAndAccess(t *testing.T) {
	svc, store, mail := newTestAuthService()
	user := signupUser(t, svc, "bye@example.com")
	mail.waitOTP(t)

	pair, refresh, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "bye@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	before, _ := store.GetByID(context.Background(), user.ID)
	if err := svc.Logout(context.Background(), pair.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Fatalf("refresh after logout: err = %v", err)
	}

	after, _ := store.GetByID(context.Background(), user.ID)
	if after.TokenVersion <= before.TokenVersion {
		t.Error("logout did not bump the token version")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "twice@example.com")
	mail.waitOTP(t)

	pair, _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "twice@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// The first logout bumps the token version; the second call comes
	// in with the now-stale token and must still succeed
	if err := svc.Logout(context.Background(), pair.Token); err != nil {
		t.Fatalf("first Logout() error = %v", err)
	}
	if err := svc.Logout(context.Background(), pair.Token); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}

	// Garbage and absent tokens are no-ops, not errors
	if err := svc.Logout(context.Background(), "not-a-jwt"); err != nil {
		t.Fatalf("Logout(garbage) error = %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout(empty) error = %v", err)
	}
}

func TestForgotPasswordDoesNotRevealRegistration(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "real@example.com")
	mail.waitOTP(t)

	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("ForgotPassword(unknown) error = %v, want nil", err)
	}
	if err := svc.ForgotPassword(context.Background(), "real@example.com"); err != nil {
		t.Fatalf("ForgotPassword(known) error = %v, want nil", err)
	}
	mail.waitResetToken(t)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	svc, _, mail := newTestAuthService()
	signupUser(t, svc, "reset@example.com")
	mail.waitOTP(t)

	if err := svc.ForgotPassword(context.Background(), "reset@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	token := mail.waitResetToken(t)

	req := &dto.ResetPasswordRequest{Password: "brand new password", ConfirmPassword: "brand new password"}
	pair, refresh, err := svc.ResetPassword(context.Background(), token, req)
	if err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if pair.Token == "" || refresh == "" {
		t.Fatal("reset did not issue a fresh token pair")
	}

	if _, _, err := svc.ResetPassword(context.Background(), token, req); !errors.Is(err, apperrors.ErrInvalidResetToken) {
		t.Fatalf("second reset with same token: err = %v, want ErrInvalidResetToken", err)
	}

	// Old password no longer works, new one does
	if _, _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "reset@example.com", Password: "correct horse battery",
	}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: err = %v", err)
	}
	if _, _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "reset@example.com", Password: "brand new password",
	}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, store, mail := newTestAuthService()
	user := signupUser(t, svc, "verify@example.com")
	otp := mail.waitOTP(t)

	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}
	if err := svc.VerifyEmail(context.Background(), user.ID, wrong); !errors.Is(err, apperrors.ErrInvalidOTP) {
		t.Fatalf("wrong code error = %v, want ErrInvalidOTP", err)
	}

	if err := svc.VerifyEmail(context.Background(), user.ID, otp); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}

	stored, _ := store.GetByID(context.Background(), user.ID)
	if !stored.Verified {
		t.Fatal("user not marked verified")
	}

	// The code is consumed on success
	if err := svc.VerifyEmail(context.Background(), user.ID, otp); !errors.Is(err, apperrors.ErrInvalidOTP) {
		t.Fatalf("reused code error = %v, want ErrInvalidOTP", err)
	}
}

func TestVerifyEmailAttemptLimit(t *testing.T) {
	svc, _, mail := newTestAuthService()
	user := signupUser(t, svc, "bruteforce@example.com")
	otp := mail.waitOTP(t)

	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		if err := svc.VerifyEmail(context.Background(), user.ID, wrong); !errors.Is(err, apperrors.ErrInvalidOTP) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidOTP", i+1, err)
		}
	}

	// Even the right code is refused once the budget is spent
	if err := svc.VerifyEmail(context.Background(), user.ID, otp); !errors.Is(err, apperrors.ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", err)
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	svc, _, mail := newTestAuthService()
	user := signupUser(t, svc, "change@example.com")
	mail.waitOTP(t)

	err := svc.ChangePassword(context.Background(), user.ID, &dto.UpdatePasswordRequest{
		CurrentPassword: "not my password",
		NewPassword:     "whatever comes next",
		ConfirmPassword: "whatever comes next",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	err = svc.ChangePassword(context.Background(), user.ID, &dto.UpdatePasswordRequest{
		CurrentPassword: "correct horse battery",
		NewPassword:     "whatever comes next",
		ConfirmPassword: "whatever comes next",
	})
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
}
