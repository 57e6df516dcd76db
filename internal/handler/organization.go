package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/constants"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/service"
	"github.com/Stockline-Systems/inventory/pkg/context"
)

type OrganizationHandler struct {
	orgs        *service.OrganizationService
	memberships MembershipResolver
}

func NewOrganizationHandler(orgs *service.OrganizationService, memberships MembershipResolver) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, memberships: memberships}
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "organization", "Create")

	var req dto.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	org, err := h.orgs.Create(ctx, currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "organization", "Get")

	orgID, ok := h.memberOrgID(c)
	if !ok {
		return
	}

	org, err := h.orgs.Get(ctx, orgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) Update(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "organization", "Update")

	orgID, ok := h.memberOrgID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	org, err := h.orgs.Update(ctx, orgID, currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) Delete(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "organization", "Delete")

	orgID, ok := h.memberOrgID(c)
	if !ok {
		return
	}

	if err := h.orgs.Delete(ctx, orgID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("organization deleted"))
}

func (h *OrganizationHandler) TransferOwnership(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "organization", "TransferOwnership")

	orgID, ok := h.memberOrgID(c)
	if !ok {
		return
	}

	var req dto.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.orgs.TransferOwnership(ctx, orgID, currentUserID(c), req.NewAdminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("ownership transferred"))
}

// memberOrgID parses the organization id from the path and checks the
// caller actually belongs to it. Outsiders get the same error as
// non-members, so org ids cannot be probed.
func (h *OrganizationHandler) memberOrgID(c *gin.Context) (uint, bool) {
	orgID, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return 0, false
	}

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return 0, false
	}
	if membership.OrganizationID != orgID {
		respondError(c, apperrors.ErrNotMember)
		return 0, false
	}
	return orgID, true
}
