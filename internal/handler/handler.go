package handler

import (
	"context"
	"math"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/constants"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

// respondError maps a domain error to its HTTP status. Status codes
// are decided here and nowhere else.
func respondError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	if status >= 500 {
		logger.ErrorWithContext(c.Request.Context(), "request failed").
			String("path", c.FullPath()).
			Err(err).
			Log()
	}
	c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(apperrors.ToHTTPStatus(apperrors.ErrInvalidInput),
		constants.BuildErrorResponse(apperrors.ErrInvalidInput.Message, err.Error()))
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(string(constants.CtxKeyUserID))
}

func pageTotal(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// MembershipResolver maps the authenticated user to their organization
type MembershipResolver interface {
	GetByUserID(ctx context.Context, userID uint) (*model.Membership, error)
}

// requireMembership resolves the caller's membership or writes the
// error response itself. Callers bail out on nil.
func requireMembership(c *gin.Context, resolver MembershipResolver) *model.Membership {
	m, err := resolver.GetByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, apperrors.ErrNotMember)
		return nil
	}
	return m
}
