package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/dto"
	apperrors "github.com/Stockline-Systems/inventory/internal/errors"
	"github.com/Stockline-Systems/inventory/internal/model"
	"github.com/Stockline-Systems/inventory/pkg/logger"
)

type ItemStore interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, orgID, id uint) (*model.Item, error)
	ExistsBySKU(ctx context.Context, orgID uint, sku string) (bool, error)
	List(ctx context.Context, orgID uint, search string, offset, limit int) ([]model.Item, int64, error)
	Update(ctx context.Context, orgID, id uint, fields map[string]any) error
	AdjustQuantity(ctx context.Context, orgID, id uint, delta int) error
	Delete(ctx context.Context, orgID, id uint) error
}

type ItemService struct {
	items   ItemStore
	reports ReportInvalidator
}

func NewItemService(items ItemStore, reports ReportInvalidator) *ItemService {
	return &ItemService{items: items, reports: reports}
}

func (s *ItemService) invalidateReport(ctx context.Context, orgID uint) {
	if s.reports != nil {
		s.reports.Invalidate(ctx, orgID)
	}
}

func (s *ItemService) Create(ctx context.Context, orgID uint, req *dto.CreateItemRequest) (*dto.ItemResponse, error) {
	exists, err := s.items.ExistsBySKU(ctx, orgID, req.SKU)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		return nil, apperrors.ErrSKUExists
	}

	item := &model.Item{
		OrganizationID: orgID,
		SKU:            req.SKU,
		Name:           req.Name,
		Description:    req.Description,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		Location:       req.Location,
		Attributes:     req.Attributes,
	}
	if err := s.items.Create(ctx, item); err != nil {
		// Unique (org, sku) race between the exists check and the insert
		return nil, apperrors.WrapError(apperrors.ErrSKUExists, err)
	}

	s.invalidateReport(ctx, orgID)
	logger.InfoWithContext(ctx, "item created").
		Uint("organization_id", orgID).
		Uint("item_id", item.ID).
		String("sku", item.SKU).
		Log()
	return toItemResponse(item), nil
}

func (s *ItemService) Get(ctx context.Context, orgID, id uint) (*dto.ItemResponse, error) {
	item, err := s.items.GetByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toItemResponse(item), nil
}

func (s *ItemService) List(ctx context.Context, orgID uint, search string, offset, limit int) ([]dto.ItemResponse, int64, error) {
	items, total, err := s.items.List(ctx, orgID, search, offset, limit)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *toItemResponse(&items[i]))
	}
	return responses, total, nil
}

func (s *ItemService) Update(ctx context.Context, orgID, id uint, req *dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.UnitPrice != nil {
		fields["unit_price"] = *req.UnitPrice
	}
	if req.Location != "" {
		fields["location"] = req.Location
	}
	if len(req.Attributes) > 0 {
		fields["attributes"] = req.Attributes
	}
	if len(fields) == 0 {
		return s.Get(ctx, orgID, id)
	}

	if err := s.items.Update(ctx, orgID, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return s.Get(ctx, orgID, id)
}

// AdjustQuantity applies a relative stock change. A delta that would
// drive the balance negative is rejected.
func (s *ItemService) AdjustQuantity(ctx context.Context, orgID, id uint, delta int) (*dto.ItemResponse, error) {
	if delta == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	if err := s.items.AdjustQuantity(ctx, orgID, id, delta); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Missing item and insufficient stock both land here;
			// disambiguate with a lookup
			if _, getErr := s.items.GetByID(ctx, orgID, id); getErr != nil {
				return nil, apperrors.ErrItemNotFound
			}
			return nil, apperrors.ErrInsufficientStock
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.invalidateReport(ctx, orgID)
	logger.InfoWithContext(ctx, "stock adjusted").
		Uint("organization_id", orgID).
		Uint("item_id", id).
		Int("delta", delta).
		Log()
	return s.Get(ctx, orgID, id)
}

func (s *ItemService) Delete(ctx context.Context, orgID, id uint) error {
	if err := s.items.Delete(ctx, orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrItemNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.invalidateReport(ctx, orgID)
	return nil
}

func toItemResponse(item *model.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:          item.ID,
		SKU:         item.SKU,
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Location:    item.Location,
		Attributes:  item.Attributes,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
