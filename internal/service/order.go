package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/events"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService drives orders past the cart: checkout commits stock, ship
// and cancel move paid orders to a terminal status.
type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Cache  OrderCache
	Now    func() time.Time
}

type CheckoutResult struct {
	OrderID     uuid.UUID
	TotalAmount decimal.Decimal
	OrderDate   time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout", "user_id", userID)

	var (
		order *models.Order
		lines []models.CartLine
		res   CheckoutResult
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		order, err = tx.FindPendingOrder(ctx, userID)
		if err != nil {
			return lookup("active order", err)
		}

		lines, err = tx.Lines(ctx, order.ID)
		if err != nil {
			return domain.Persistence("load cart lines", err)
		}
		if len(lines) == 0 {
			return fmt.Errorf("order %s has no items: %w", order.ID, domain.ErrValidation)
		}

		total, err := tx.RecomputeTotal(ctx, order.ID)
		if err != nil {
			return domain.Persistence("recompute total", err)
		}

		paidAt := s.now()
		ok, err := tx.TransitionStatus(ctx, order.ID, domain.StatusPending, domain.StatusPaid, &paidAt)
		if err != nil {
			return domain.Persistence("mark order paid", err)
		}
		if !ok {
			return fmt.Errorf("order %s is no longer pending: %w", order.ID, domain.ErrInvalidState)
		}

		for _, line := range lines {
			ok, err := tx.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return domain.Persistence("decrement stock", err)
			}
			if !ok {
				return fmt.Errorf("product %s: cannot take %d: %w", line.ProductID, line.Quantity, domain.ErrInsufficientStock)
			}
		}

		order.Status = domain.StatusPaid
		order.TotalAmount = total
		order.OrderDate = &paidAt
		res = CheckoutResult{OrderID: order.ID, TotalAmount: total, OrderDate: paidAt}
		return nil
	})
	if err != nil {
		return nil, domain.Persistence("checkout", err)
	}

	l.Info("order_paid", "order_id", order.ID, "total_amount", res.TotalAmount.StringFixed(2), "lines", len(lines))
	invalidate(ctx, s.Cache, order.ID)
	publish(ctx, s.Events, events.Event{
		Type:    events.TypeOrderPaid,
		Key:     order.ID.String(),
		Payload: orderPayload(order, lines),
	})

	return &res, nil
}

func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	var out *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return lookup("order", err)
		}
		if !actor.Owns(order) && !actor.Admin {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrForbidden)
		}
		if !domain.CanTransition(order.Status, domain.StatusShipped) {
			return fmt.Errorf("cannot ship order in status %s: %w", order.Status, domain.ErrInvalidState)
		}

		ok, err := tx.TransitionStatus(ctx, orderID, order.Status, domain.StatusShipped, nil)
		if err != nil {
			return domain.Persistence("mark order shipped", err)
		}
		if !ok {
			return fmt.Errorf("order %s changed concurrently: %w", orderID, domain.ErrInvalidState)
		}

		out, err = tx.GetOrderWithLines(ctx, orderID)
		return lookup("order", err)
	})
	if err != nil {
		return nil, domain.Persistence("ship", err)
	}

	logging.FromContext(ctx).Info("order_shipped", "order_id", orderID, "actor", actor.UserID)
	invalidate(ctx, s.Cache, orderID)
	publish(ctx, s.Events, events.Event{
		Type:    events.TypeOrderShipped,
		Key:     orderID.String(),
		Payload: orderPayload(out, out.Lines),
	})
	return out, nil
}

// Cancel is owner-only. A paid order gives its stock back before it is
// cancelled; a pending one never took any.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var (
		out      *models.Order
		restored bool
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return lookup("order", err)
		}
		if order.UserID != userID {
			return fmt.Errorf("order %s: %w", orderID, domain.ErrForbidden)
		}
		if !domain.CanTransition(order.Status, domain.StatusCancelled) {
			return fmt.Errorf("cannot cancel order in status %s: %w", order.Status, domain.ErrInvalidState)
		}

		if order.Status.HoldsStock() {
			lines, err := tx.Lines(ctx, orderID)
			if err != nil {
				return domain.Persistence("load cart lines", err)
			}
			for _, line := range lines {
				if err := tx.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
					return lookup(fmt.Sprintf("product %s", line.ProductID), err)
				}
			}
			restored = true
		}

		ok, err := tx.TransitionStatus(ctx, orderID, order.Status, domain.StatusCancelled, nil)
		if err != nil {
			return domain.Persistence("mark order cancelled", err)
		}
		if !ok {
			return fmt.Errorf("order %s changed concurrently: %w", orderID, domain.ErrInvalidState)
		}

		out, err = tx.GetOrderWithLines(ctx, orderID)
		return lookup("order", err)
	})
	if err != nil {
		return nil, domain.Persistence("cancel", err)
	}

	logging.FromContext(ctx).Info("order_cancelled", "order_id", orderID, "stock_restored", restored)
	invalidate(ctx, s.Cache, orderID)
	publish(ctx, s.Events, events.Event{
		Type:    events.TypeOrderCancelled,
		Key:     orderID.String(),
		Payload: orderPayload(out, out.Lines),
	})
	return out, nil
}

// GetOrder serves from the cache when it can. Ownership is checked on every
// read, cached or not.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.get", "order_id", orderID)

	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, orderID)
		if err != nil {
			l.Warn("order_cache_get_failed", "error", err)
		}
		if ok {
			if !actor.Owns(cached) && !actor.Admin {
				return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrForbidden)
			}
			return cached, nil
		}
	}

	order, err := s.Repo.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, lookup("order", err)
	}
	if !actor.Owns(order) && !actor.Admin {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrForbidden)
	}

	// Only terminal orders are written back. A mutable snapshot read here can
	// land after a concurrent writer's invalidation and would stay stale.
	if s.Cache != nil && order.Status.Terminal() {
		if err := s.Cache.Set(ctx, order); err != nil {
			l.Warn("order_cache_set_failed", "error", err)
		}
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	total, orders, err := s.Repo.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return 0, nil, domain.Persistence("list orders", err)
	}
	return total, orders, nil
}
