package repo

import (
	"context"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListAvailable(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	available := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.Product{}).Where("availability > 0")
	}

	var total int64
	if err := available().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := available().Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// AvailableByIDs returns the in-stock subset of ids, in no particular order.
func (r *GormRepo) AvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	items := make([]models.Product, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ? AND availability > 0", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementStock takes qty units only if that many are available. false means
// the row was missing or short.
func (r *GormRepo) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND availability >= ?", productID, qty).
		Update("availability", gorm.Expr("availability - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("availability", gorm.Expr("availability + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
