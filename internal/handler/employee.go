package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Stockline-Systems/inventory/internal/constants"
	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/internal/service"
	"github.com/Stockline-Systems/inventory/pkg/context"
)

type EmployeeHandler struct {
	employees   *service.EmployeeService
	orgs        *service.OrganizationService
	memberships MembershipResolver
}

func NewEmployeeHandler(employees *service.EmployeeService, orgs *service.OrganizationService, memberships MembershipResolver) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, orgs: orgs, memberships: memberships}
}

func (h *EmployeeHandler) SendInvite(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "SendInvite")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	var req dto.SendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	org, err := h.orgs.Get(ctx, membership.OrganizationID)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.employees.SendInvite(ctx, membership.OrganizationID, currentUserID(c), &req, org.Name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("invitation sent"))
}

func (h *EmployeeHandler) AcceptInvite(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "AcceptInvite")

	var req dto.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	employee, err := h.employees.AcceptInvite(ctx, currentUserID(c), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, employee)
}

func (h *EmployeeHandler) List(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "List")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	params := constants.ParsePaginationParams(c)
	employees, total, err := h.employees.ListEmployees(ctx, membership.OrganizationID, c.Query("search"), params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildListResponse(total, params.Page, pageTotal(total, params.Limit), employees))
}

func (h *EmployeeHandler) ListInvitations(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "ListInvitations")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}
	if membership.Role == model.RoleStaff {
		respondError(c, apperrors.ErrForbidden)
		return
	}

	params := constants.ParsePaginationParams(c)
	invitations, total, err := h.employees.ListInvitations(ctx, membership.OrganizationID, params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildListResponse(total, params.Page, pageTotal(total, params.Limit), invitations))
}

func (h *EmployeeHandler) RevokeInvite(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "RevokeInvite")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	invitationID, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	if err := h.employees.RevokeInvite(ctx, membership.OrganizationID, currentUserID(c), invitationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("invitation revoked"))
}

func (h *EmployeeHandler) UpdateRole(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "UpdateRole")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	targetID, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.employees.UpdateRole(ctx, membership.OrganizationID, currentUserID(c), targetID, model.Role(req.Role)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("role updated"))
}

func (h *EmployeeHandler) Remove(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "employee", "Remove")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	targetID, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	if err := h.employees.RemoveEmployee(ctx, membership.OrganizationID, currentUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("employee removed"))
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
