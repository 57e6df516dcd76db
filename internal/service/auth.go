package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/constants"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/logger"
	"github.com/Stockline-Systems/inventory/pkg/mailer"
)

// UserStore is the slice of the user repository the session controller
// needs. Tests supply an in-memory implementation.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uint) error
	SetOTP(ctx context.Context, id uint, otpHash string, expires time.Time) error
	ConsumeOTP(ctx context.Context, id uint, otpHash string) error
	SetResetToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (*model.User, error)
	StoreRefreshToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error
	RotateRefreshToken(ctx context.Context, oldHash, newHash string, expires time.Time) (*model.User, error)
	ClearRefreshToken(ctx context.Context, id uint) error
}

// AttemptLimiter counts verification attempts with an expiring key
type AttemptLimiter interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}

type AuthService struct {
	users   UserStore
	tokens  *TokenService
	limiter AttemptLimiter
	mail    mailer.Mailer
	cfg     *config.Config
}

func NewAuthService(users UserStore, tokens *TokenService, limiter AttemptLimiter, mail mailer.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		mail:    mail,
		cfg:     cfg,
	}
}

// Signup registers the account and signs it straight in: a verification
// code goes out by mail while the fresh token pair lets the user reach
// the verify endpoint.
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.TokenPairResponse, string, error) {
	if req.Password != req.ConfirmPassword {
		return nil, "", apperrors.ErrPasswordMismatch
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		return nil, "", apperrors.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Phone:        req.Phone,
		Password:     string(hash),
		TokenVersion: 1,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Unique email race between the exists check and the insert
		return nil, "", apperrors.WrapError(apperrors.ErrEmailExists, err)
	}

	if err := s.issueOTP(ctx, user); err != nil {
		logger.WarnWithContext(ctx, "verification code not issued").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	pair, refresh, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", err
	}

	logger.InfoWithContext(ctx, "user registered").
		Uint("user_id", user.ID).
		Log()
	return pair, refresh, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPairResponse, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same error whether the email is unknown or the password wrong
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	pair, refresh, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.WarnWithContext(ctx, "last login not recorded").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "user logged in").
		Uint("user_id", user.ID).
		Log()
	return pair, refresh, nil
}

// Refresh rotates the presented refresh token. The swap happens in a
// single guarded update, so when two requests race on the same token
// only one gets a new pair and the other is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, string, error) {
	if refreshToken == "" {
		return nil, "", apperrors.ErrInvalidRefreshToken
	}

	next, err := GenerateOpaqueToken()
	if err != nil {
		return nil, "", err
	}

	expires := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	user, err := s.users.RotateRefreshToken(ctx, HashToken(refreshToken), HashToken(next), expires)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidRefreshToken
		}
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.DebugWithContext(ctx, "refresh token rotated").
		Uint("user_id", user.ID).
		Log()
	return &dto.RefreshResponse{
		Token:        access,
		RefreshToken: next,
		ExpiresIn:    int(s.tokens.AccessTokenTTL().Seconds()),
	}, next, nil
}

// Logout revokes the user's refresh token and bumps the token version,
// killing any access tokens still in flight. It is best effort so the
// route stays idempotent: a missing, malformed or already-revoked
// bearer token still ends with a cleared session. The token version is
// deliberately not checked here, a second logout with the same token
// must succeed.
func (s *AuthService) Logout(ctx context.Context, rawAccessToken string) error {
	claims, err := s.tokens.ValidateAccessToken(rawAccessToken)
	if err != nil {
		logger.DebugWithContext(ctx, "logout with unusable token").Log()
		return nil
	}

	if err := s.users.ClearRefreshToken(ctx, claims.UserID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	logger.InfoWithContext(ctx, "user logged out").
		Uint("user_id", claims.UserID).
		Log()
	return nil
}

// ForgotPassword always reports success so callers cannot probe which
// emails are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		logger.DebugWithContext(ctx, "password reset requested for unknown email").Log()
		return nil
	}

	token, err := GenerateOpaqueToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.cfg.JWT.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, HashToken(token), expires); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	resetURL := fmt.Sprintf("https://%s/reset-password?token=%s", s.cfg.Cookie.Domain, token)
	go func() {
		if err := s.mail.SendPasswordReset(user.Email, user.FirstName, resetURL); err != nil {
			logger.GetLogger().Sugar().Errorw("reset mail failed", "error", err)
		}
	}()

	logger.InfoWithContext(ctx, "password reset issued").
		Uint("user_id", user.ID).
		Log()
	return nil
}

// ResetPassword consumes the emailed token and signs the user back in
// with a fresh pair. The consume bumps the token version, so every
// session issued before the reset is dead.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) (*dto.TokenPairResponse, string, error) {
	if req.Password != req.ConfirmPassword {
		return nil, "", apperrors.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.users.ConsumeResetToken(ctx, HashToken(token), string(hash))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidResetToken
		}
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	pair, refresh, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, "", err
	}

	logger.InfoWithContext(ctx, "password reset completed").
		Uint("user_id", user.ID).
		Log()
	return pair, refresh, nil
}

// VerifyEmail checks the submitted code against the stored digest,
// counting attempts in redis so the 6 digit space cannot be brute
// forced.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uint, otp string) error {
	key := fmt.Sprintf("%s%d", constants.CacheKeyOTPAttempts, userID)
	attempts, err := s.limiter.IncrementWithTTL(ctx, key, s.cfg.JWT.OTPTTL)
	if err != nil {
		logger.WarnWithContext(ctx, "otp attempt counter unavailable").Err(err).Log()
	} else if attempts > int64(s.cfg.JWT.OTPMaxAttempts) {
		return apperrors.ErrTooManyAttempts
	}

	if err := s.users.ConsumeOTP(ctx, userID, HashToken(otp)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidOTP
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.limiter.Delete(ctx, key); err != nil {
		logger.DebugWithContext(ctx, "otp attempt counter not cleared").Err(err).Log()
	}

	logger.InfoWithContext(ctx, "email verified").
		Uint("user_id", userID).
		Log()
	return nil
}

// ResendVerification issues a fresh code, replacing any outstanding one
func (s *AuthService) ResendVerification(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.Verified {
		return apperrors.ErrInvalidInput
	}
	return s.issueOTP(ctx, user)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toUserResponse(user), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	fields := map[string]any{}
	if req.FirstName != "" {
		fields["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		fields["last_name"] = req.LastName
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
	}
	if len(fields) == 0 {
		return s.GetProfile(ctx, userID)
	}

	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword verifies the current password before replacing it. The
// swap bumps the token version, forcing a fresh login everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req *dto.UpdatePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "password changed").
		Uint("user_id", userID).
		Log()
	return nil
}

// issueTokenPair mints an access token and stores a new refresh token
// for the user. The caller decides what to do with the refresh value,
// normally it goes into an HTTP-only cookie.
func (s *AuthService) issueTokenPair(ctx context.Context, user *model.User) (*dto.TokenPairResponse, string, error) {
	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	refresh, err := GenerateOpaqueToken()
	if err != nil {
		return nil, "", err
	}

	expires := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.users.StoreRefreshToken(ctx, user.ID, HashToken(refresh), expires); err != nil {
		return nil, "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.TokenPairResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, refresh, nil
}

func (s *AuthService) issueOTP(ctx context.Context, user *model.User) error {
	otp, err := GenerateOTP()
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.cfg.JWT.OTPTTL)
	if err := s.users.SetOTP(ctx, user.ID, HashToken(otp), expires); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	go func() {
		if err := s.mail.SendOTP(user.Email, user.FirstName, otp); err != nil {
			logger.GetLogger().Sugar().Errorw("otp mail failed", "error", err)
		}
	}()
	return nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Verified:  user.Verified,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
