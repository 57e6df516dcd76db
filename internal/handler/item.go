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

type ItemHandler struct {
	items       *service.ItemService
	memberships MembershipResolver
}

func NewItemHandler(items *service.ItemService, memberships MembershipResolver) *ItemHandler {
	return &ItemHandler{items: items, memberships: memberships}
}

func (h *ItemHandler) Create(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "item", "Create")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	item, err := h.items.Create(ctx, membership.OrganizationID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) Get(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "item", "Get")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	item, err := h.items.Get(ctx, membership.OrganizationID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) List(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "item", "List")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	params := constants.ParsePaginationParams(c)
	search := c.Query(constants.QueryParamSearch)

	items, total, err := h.items.List(ctx, membership.OrganizationID, search, params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildListResponse(total, params.Page, pageTotal(total, params.Limit), items))
}

func (h *ItemHandler) Update(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "item", "Update")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	item, err := h.items.Update(ctx, membership.OrganizationID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) AdjustQuantity(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "item", "AdjustQuantity")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	var req dto.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	item, err := h.items.AdjustQuantity(ctx, membership.OrganizationID, id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) Delete(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "item", "Delete")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	if err := h.items.Delete(ctx, membership.OrganizationID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("item deleted"))
}
