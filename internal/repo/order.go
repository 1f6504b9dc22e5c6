package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/models"
	pkgdb "github.com/Skotchmaster/shop_orders/pkg/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) FindPendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.StatusPending).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrCreatePendingOrder returns the user's pending order, inserting one if
// none exists. A concurrent insert that wins the unique index is read back
// instead of failing the caller.
func (r *GormRepo) FindOrCreatePendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, bool, error) {
	order, err := r.FindPendingOrder(ctx, userID)
	if err == nil {
		return order, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	order = &models.Order{
		UserID:      userID,
		Status:      domain.StatusPending,
		TotalAmount: decimal.Zero,
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err == nil {
		return order, true, nil
	}
	if !pkgdb.IsUniqueViolation(err) {
		return nil, false, err
	}

	order, err = r.FindPendingOrder(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return order, false, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderWithLines(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("product_id ASC") }).
		Preload("Lines.Product").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// TransitionStatus moves the order from one status to another only if it is
// still in from. false means someone else changed it first.
func (r *GormRepo) TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to domain.Status, orderDate *time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if orderDate != nil {
		updates["order_date"] = *orderDate
	}

	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) Lines(ctx context.Context, orderID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("product_id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// AddToLine accumulates qty onto the (order, product) line, creating it when
// absent.
func (r *GormRepo) AddToLine(ctx context.Context, orderID, productID uuid.UUID, qty int) (*models.CartLine, error) {
	line := models.CartLine{OrderID: orderID, ProductID: productID, Quantity: qty}

	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cart_lines.quantity + excluded.quantity"),
		}),
	}).Create(&line).Error; err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *GormRepo) DeleteLine(ctx context.Context, orderID, productID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementLine lowers a line by qty. A line that would reach zero is deleted
// rather than kept at a non-positive quantity.
func (r *GormRepo) DecrementLine(ctx context.Context, orderID, productID uuid.UUID, qty int) (deleted bool, line *models.CartLine, err error) {
	res := r.DB.WithContext(ctx).Model(&models.CartLine{}).
		Where("order_id = ? AND product_id = ? AND quantity > ?", orderID, productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, nil, res.Error
	}

	if res.RowsAffected == 1 {
		var l models.CartLine
		if err := r.DB.WithContext(ctx).
			Where("order_id = ? AND product_id = ?", orderID, productID).
			First(&l).Error; err != nil {
			return false, nil, err
		}
		return false, &l, nil
	}

	ok, err := r.DeleteLine(ctx, orderID, productID)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, gorm.ErrRecordNotFound
	}
	return true, nil, nil
}

type linePrice struct {
	Quantity int
	Price    decimal.Decimal
}

// RecomputeTotal rewrites orders.total_amount as the sum of quantity*price
// over the order's current lines and returns it.
func (r *GormRepo) RecomputeTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var rows []linePrice
	if err := r.DB.WithContext(ctx).
		Table("cart_lines").
		Select("cart_lines.quantity AS quantity, products.price AS price").
		Joins("JOIN products ON products.id = cart_lines.product_id").
		Where("cart_lines.order_id = ?", orderID).
		Scan(&rows).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Price.Mul(decimal.NewFromInt(int64(row.Quantity))))
	}

	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_amount", total)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return total, nil
}
