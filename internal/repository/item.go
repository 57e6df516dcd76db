package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Stockline-Systems/inventory/internal/model"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *ItemRepository) GetByID(ctx context.Context, orgID, id uint) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) ExistsBySKU(ctx context.Context, orgID uint, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("organization_id = ? AND sku = ?", orgID, sku).
		Count(&count).Error
	return count > 0, err
}

func (r *ItemRepository) List(ctx context.Context, orgID uint, search string, offset, limit int) ([]model.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("organization_id = ?", orgID)
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Item
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ItemRepository) Update(ctx context.Context, orgID, id uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustQuantity applies a relative stock change in one statement. The
// guard keeps the balance from going negative under concurrent adjusts.
func (r *ItemRepository) AdjustQuantity(ctx context.Context, orgID, id uint, delta int) error {
	result := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ? AND organization_id = ? AND quantity + ? >= 0", id, orgID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, orgID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Delete(&model.Item{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ItemRepository) CountByOrganization(ctx context.Context, orgID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("organization_id = ?", orgID).
		Count(&count).Error
	return count, err
}

func (r *ItemRepository) SumQuantity(ctx context.Context, orgID uint) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("organization_id = ?", orgID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}
