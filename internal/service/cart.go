package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartService owns the active order of each user and its lines. It never
// touches stock; that happens at checkout.
type CartService struct {
	Repo  *repo.GormRepo
	Cache OrderCache
}

func (s *CartService) GetOrCreateActiveOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", domain.ErrValidation)
	}

	order, created, err := s.Repo.FindOrCreatePendingOrder(ctx, userID)
	if err != nil {
		return nil, domain.Persistence("find or create order", err)
	}
	if created {
		logging.FromContext(ctx).Info("active_order_created", "order_id", order.ID, "user_id", userID)
	}
	return order, nil
}

// GetCart returns the active order with its lines, or nil when the user has
// none. It never creates an order.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.FindPendingOrder(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistence("find active order", err)
	}

	full, err := s.Repo.GetOrderWithLines(ctx, order.ID)
	if err != nil {
		return nil, lookup("order", err)
	}
	return full, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Order, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product_id required: %w", domain.ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be > 0: %w", domain.ErrValidation)
	}

	var out *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, _, err := tx.FindOrCreatePendingOrder(ctx, userID)
		if err != nil {
			return domain.Persistence("find or create order", err)
		}

		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return lookup("product", err)
		}
		if product.Availability < quantity {
			return fmt.Errorf("product %s: requested %d, available %d: %w",
				productID, quantity, product.Availability, domain.ErrInsufficientStock)
		}

		line, err := tx.AddToLine(ctx, order.ID, productID, quantity)
		if err != nil {
			return domain.Persistence("add cart line", err)
		}
		if line.Quantity > product.Availability {
			return fmt.Errorf("product %s: cart would hold %d, available %d: %w",
				productID, line.Quantity, product.Availability, domain.ErrInsufficientStock)
		}

		if _, err := tx.RecomputeTotal(ctx, order.ID); err != nil {
			return domain.Persistence("recompute total", err)
		}

		out, err = tx.GetOrderWithLines(ctx, order.ID)
		return lookup("order", err)
	})
	if err != nil {
		return nil, domain.Persistence("add item", err)
	}

	invalidate(ctx, s.Cache, out.ID)
	return out, nil
}

// RemoveItem drops the product's line from the active order. A positive
// quantity only lowers the line, deleting it once it would reach zero.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Order, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product_id required: %w", domain.ErrValidation)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must be >= 0: %w", domain.ErrValidation)
	}

	var out *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.FindPendingOrder(ctx, userID)
		if err != nil {
			return lookup("active order", err)
		}

		if quantity == 0 {
			deleted, err := tx.DeleteLine(ctx, order.ID, productID)
			if err != nil {
				return domain.Persistence("delete cart line", err)
			}
			if !deleted {
				return fmt.Errorf("cart line for product %s: %w", productID, domain.ErrNotFound)
			}
		} else if _, _, err := tx.DecrementLine(ctx, order.ID, productID, quantity); err != nil {
			return lookup(fmt.Sprintf("cart line for product %s", productID), err)
		}

		if _, err := tx.RecomputeTotal(ctx, order.ID); err != nil {
			return domain.Persistence("recompute total", err)
		}

		out, err = tx.GetOrderWithLines(ctx, order.ID)
		return lookup("order", err)
	})
	if err != nil {
		return nil, domain.Persistence("remove item", err)
	}

	invalidate(ctx, s.Cache, out.ID)
	return out, nil
}
