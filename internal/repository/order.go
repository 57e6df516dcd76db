package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/model"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order with its lines and reserves stock for each
// line in the same transaction. A line whose item lacks stock fails the
// whole order.
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for _, line := range order.Lines {
			result := tx.Model(&model.Item{}).
				Where("id = ? AND organization_id = ? AND quantity >= ?",
					line.ItemID, order.OrganizationID, line.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, orgID, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Deliveries").
		Where("organization_id = ?", orgID).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, orgID uint, status model.OrderStatus, offset, limit int) ([]model.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("organization_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	err := query.
		Preload("Lines").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves the order only if it still sits in the expected
// state, so two racing transitions cannot both apply. A cancellation
// restores the reserved stock inside the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orgID, id uint, from, to model.OrderStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ? AND organization_id = ? AND status = ?", id, orgID, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if to != model.OrderCancelled {
			return nil
		}
		var lines []model.OrderLine
		if err := tx.Where("order_id = ?", id).Find(&lines).Error; err != nil {
			return err
		}
		for _, line := range lines {
			err := tx.Model(&model.Item{}).
				Where("id = ?", line.ItemID).
				Update("quantity", gorm.Expr("quantity + ?", line.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) CountByStatus(ctx context.Context, orgID uint) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("organization_id = ?", orgID).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *OrderRepository) CreateDelivery(ctx context.Context, delivery *model.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *OrderRepository) GetDelivery(ctx context.Context, orderID, deliveryID uint) (*model.Delivery, error) {
	var delivery model.Delivery
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&delivery, deliveryID).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *OrderRepository) UpdateDelivery(ctx context.Context, orderID, deliveryID uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.Delivery{}).
		Where("id = ? AND order_id = ?", deliveryID, orderID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
