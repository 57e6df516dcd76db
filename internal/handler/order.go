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

type OrderHandler struct {
	orders      *service.OrderService
	memberships MembershipResolver
}

func NewOrderHandler(orders *service.OrderService, memberships MembershipResolver) *OrderHandler {
	return &OrderHandler{orders: orders, memberships: memberships}
}

func (h *OrderHandler) Create(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "order", "Create")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := h.orders.Create(ctx, membership.OrganizationID, currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "order", "Get")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	order, err := h.orders.Get(ctx, membership.OrganizationID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "order", "List")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	params := constants.ParsePaginationParams(c)
	status := c.Query("status")

	orders, total, err := h.orders.List(ctx, membership.OrganizationID, status, params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildListResponse(total, params.Page, pageTotal(total, params.Limit), orders))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "order", "UpdateStatus")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(ctx, membership.OrganizationID, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ScheduleDelivery(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "order", "ScheduleDelivery")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	orderID, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	var req dto.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	delivery, err := h.orders.ScheduleDelivery(ctx, membership.OrganizationID, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

func (h *OrderHandler) UpdateDelivery(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "order", "UpdateDelivery")

	membership := requireMembership(c, h.memberships)
	if membership == nil {
		return
	}

	orderID, err := pathID(c, "id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}
	deliveryID, err := pathID(c, "delivery_id")
	if err != nil {
		respondError(c, apperrors.ErrInvalidInput)
		return
	}

	var req dto.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	delivery, err := h.orders.UpdateDelivery(ctx, membership.OrganizationID, orderID, deliveryID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}
