package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, orgID, id uint) (*model.Order, error)
	List(ctx context.Context, orgID uint, status model.OrderStatus, offset, limit int) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orgID, id uint, from, to model.OrderStatus) error
	CountByStatus(ctx context.Context, orgID uint) (map[string]int64, error)
	CreateDelivery(ctx context.Context, delivery *model.Delivery) error
	GetDelivery(ctx context.Context, orderID, deliveryID uint) (*model.Delivery, error)
	UpdateDelivery(ctx context.Context, orderID, deliveryID uint, fields map[string]any) error
}

type OrderService struct {
	orders  OrderStore
	items   ItemStore
	reports ReportInvalidator
}

func NewOrderService(orders OrderStore, items ItemStore, reports ReportInvalidator) *OrderService {
	return &OrderService{orders: orders, items: items, reports: reports}
}

func (s *OrderService) invalidateReport(ctx context.Context, orgID uint) {
	if s.reports != nil {
		s.reports.Invalidate(ctx, orgID)
	}
}

// Create opens an order in pending state. Line prices snapshot the
// item's unit price at creation time; stock is reserved atomically with
// the insert.
func (s *OrderService) Create(ctx context.Context, orgID, userID uint, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	lines := make([]model.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		item, err := s.items.GetByID(ctx, orgID, line.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrItemNotFound
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		lines = append(lines, model.OrderLine{
			ItemID:    item.ID,
			Quantity:  line.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order := &model.Order{
		OrganizationID: orgID,
		Reference:      req.Reference,
		CustomerName:   req.CustomerName,
		Status:         model.OrderPending,
		CreatedBy:      userID,
		Metadata:       req.Metadata,
		Lines:          lines,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInsufficientStock
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.invalidateReport(ctx, orgID)
	logger.InfoWithContext(ctx, "order created").
		Uint("organization_id", orgID).
		Uint("order_id", order.ID).
		String("reference", order.Reference).
		Int("lines", len(order.Lines)).
		Log()
	return toOrderResponse(order), nil
}

func (s *OrderService) Get(ctx context.Context, orgID, id uint) (*dto.OrderResponse, error) {
	order, err := s.orders.GetByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toOrderResponse(order), nil
}

func (s *OrderService) List(ctx context.Context, orgID uint, status string, offset, limit int) ([]dto.OrderResponse, int64, error) {
	filter := model.OrderStatus(status)
	if status != "" && !knownOrderStatus(filter) {
		return nil, 0, apperrors.ErrInvalidStatus
	}

	orders, total, err := s.orders.List(ctx, orgID, filter, offset, limit)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *toOrderResponse(&orders[i]))
	}
	return responses, total, nil
}

// UpdateStatus walks the order along its legal transitions. The guarded
// update keeps two racing transitions from both applying; cancellation
// returns reserved stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orgID, id uint, status string) (*dto.OrderResponse, error) {
	to := model.OrderStatus(status)
	if !knownOrderStatus(to) {
		return nil, apperrors.ErrInvalidStatus
	}

	order, err := s.orders.GetByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !model.CanTransition(order.Status, to) {
		return nil, apperrors.ErrInvalidStatus
	}

	if err := s.orders.UpdateStatus(ctx, orgID, id, order.Status, to); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Status moved between the read and the update
			return nil, apperrors.ErrInvalidStatus
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.invalidateReport(ctx, orgID)
	logger.InfoWithContext(ctx, "order status updated").
		Uint("organization_id", orgID).
		Uint("order_id", id).
		String("from", string(order.Status)).
		String("to", string(to)).
		Log()
	return s.Get(ctx, orgID, id)
}

// ScheduleDelivery attaches a delivery to a confirmed or shipped order
func (s *OrderService) ScheduleDelivery(ctx context.Context, orgID, orderID uint, req *dto.CreateDeliveryRequest) (*dto.DeliveryResponse, error) {
	order, err := s.orders.GetByID(ctx, orgID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if order.Status != model.OrderConfirmed && order.Status != model.OrderShipped {
		return nil, apperrors.ErrInvalidStatus
	}

	delivery := &model.Delivery{
		OrderID:      orderID,
		Carrier:      req.Carrier,
		TrackingCode: req.TrackingCode,
		Status:       model.DeliveryScheduled,
		ScheduledAt:  req.ScheduledAt,
	}
	if err := s.orders.CreateDelivery(ctx, delivery); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "delivery scheduled").
		Uint("order_id", orderID).
		Uint("delivery_id", delivery.ID).
		String("carrier", delivery.Carrier).
		Log()
	return toDeliveryResponse(delivery), nil
}

func (s *OrderService) UpdateDelivery(ctx context.Context, orgID, orderID, deliveryID uint, req *dto.UpdateDeliveryRequest) (*dto.DeliveryResponse, error) {
	if _, err := s.orders.GetByID(ctx, orgID, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	fields := map[string]any{"status": model.DeliveryStatus(req.Status)}
	if req.Status == string(model.DeliveryCompleted) {
		deliveredAt := time.Now()
		if req.DeliveredAt != nil {
			deliveredAt = *req.DeliveredAt
		}
		fields["delivered_at"] = deliveredAt
	}

	if err := s.orders.UpdateDelivery(ctx, orderID, deliveryID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDeliveryNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	delivery, err := s.orders.GetDelivery(ctx, orderID, deliveryID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toDeliveryResponse(delivery), nil
}

func knownOrderStatus(s model.OrderStatus) bool {
	switch s {
	case model.OrderPending, model.OrderConfirmed, model.OrderShipped,
		model.OrderDelivered, model.OrderCancelled:
		return true
	}
	return false
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ID:        line.ID,
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	deliveries := make([]dto.DeliveryResponse, 0, len(order.Deliveries))
	for i := range order.Deliveries {
		deliveries = append(deliveries, *toDeliveryResponse(&order.Deliveries[i]))
	}

	return &dto.OrderResponse{
		ID:           order.ID,
		Reference:    order.Reference,
		CustomerName: order.CustomerName,
		Status:       string(order.Status),
		Lines:        lines,
		Deliveries:   deliveries,
		Metadata:     order.Metadata,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func toDeliveryResponse(d *model.Delivery) *dto.DeliveryResponse {
	return &dto.DeliveryResponse{
		ID:           d.ID,
		OrderID:      d.OrderID,
		Carrier:      d.Carrier,
		TrackingCode: d.TrackingCode,
		Status:       string(d.Status),
		ScheduledAt:  d.ScheduledAt,
		DeliveredAt:  d.DeliveredAt,
		CreatedAt:    d.CreatedAt,
	}
}
