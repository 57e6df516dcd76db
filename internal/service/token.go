package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Stockline-Systems/inventory/config"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
)

// AccessClaims travel inside the signed access token. TokenVersion is
// compared against the user row on every authenticated request, so a
// logout or password change invalidates tokens that have not expired.
type AccessClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// InviteClaims bind an invitation token to one email, role and
// organization. InvitationID points at the persisted row that enforces
// single use.
type InviteClaims struct {
	InvitationID   uint   `json:"invitation_id"`
	OrganizationID uint   `json:"organization_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

const refreshTokenBytes = 32

// Access and invite tokens share the signing secret, so the audience
// claim is what keeps them from standing in for each other.
const (
	audienceAPI    = "api"
	audienceInvite = "invite"
)

type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	inviteTTL time.Duration
	issuer    string
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:    []byte(cfg.JWT.Secret),
		accessTTL: cfg.JWT.AccessTokenTTL,
		inviteTTL: cfg.JWT.InviteTokenTTL,
		issuer:    cfg.App.Name,
	}
}

func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) GenerateAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			Audience:  jwt.ClaimStrings{audienceAPI},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return signed, nil
}

func (s *TokenService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audienceAPI))
	if err != nil || !token.Valid {
		return nil, wrapTokenError(err)
	}
	return claims, nil
}

// GenerateInviteToken signs the invite claims. Expiry mirrors the
// invitation row; validation checks both.
func (s *TokenService) GenerateInviteToken(inv *model.Invitation) (string, error) {
	now := time.Now()
	claims := InviteClaims{
		InvitationID:   inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           string(inv.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audienceInvite},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(inv.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return signed, nil
}

func (s *TokenService) ValidateInviteToken(tokenString string) (*InviteClaims, error) {
	claims := &InviteClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audienceInvite))
	if err != nil || !token.Valid {
		return nil, wrapTokenError(err)
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (any, error) {
	return s.secret, nil
}

func wrapTokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.WrapError(apperrors.ErrTokenExpired, err)
	}
	return apperrors.WrapError(apperrors.ErrInvalidToken, err)
}

// GenerateOpaqueToken returns an unguessable random token for refresh
// and reset flows. Only its digest is persisted.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken produces the deterministic digest stored in place of the
// opaque token, letting lookups and rotation run as guarded updates.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateOTP returns a 6 digit verification code drawn from crypto/rand
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
