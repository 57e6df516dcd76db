package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/constants"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/internal/service"
	ctxutil "github.com/Stockline-Systems/inventory/pkg/context"
)

// UserLookup resolves the token subject for the version check
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// RequireAuth validates the bearer token and compares its version claim
// against the user row, so logout and password changes revoke tokens
// that have not yet expired.
func RequireAuth(tokens *service.TokenService, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := tokens.ValidateAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortUnauthorized(c, apperrors.ErrInvalidToken)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || user.TokenVersion != claims.TokenVersion {
			abortUnauthorized(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(string(constants.CtxKeyUserID), user.ID)
		c.Set(string(constants.CtxKeyUserEmail), user.Email)

		ctx := ctxutil.WithUserID(c.Request.Context(), user.ID)
		ctx = ctxutil.WithUserEmail(ctx, user.Email)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireVerified gates routes behind email verification
func RequireVerified(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(string(constants.CtxKeyUserID))
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || !user.Verified {
			c.AbortWithStatusJSON(http.StatusForbidden,
				constants.BuildErrorResponse("email verification required", nil))
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err *apperrors.DomainError) {
	c.AbortWithStatusJSON(apperrors.ToHTTPStatus(err),
		constants.BuildErrorResponse(err.Message, nil))
}
