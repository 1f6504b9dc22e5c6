package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/events"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, bool, error)
	Set(ctx context.Context, order *models.Order) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

// Actor is the authenticated caller as resolved by the access gate.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

func (a Actor) Owns(o *models.Order) bool {
	return o.UserID == a.UserID
}

func lookup(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return domain.Persistence(what, err)
}

func invalidate(ctx context.Context, c OrderCache, id uuid.UUID) {
	if c == nil || id == uuid.Nil {
		return
	}
	if err := c.Invalidate(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("order_cache_invalidate_failed", "order_id", id, "error", err)
	}
}

// publish runs after commit; a broker failure never undoes the operation.
func publish(ctx context.Context, p events.Publisher, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "event_type", ev.Type, "key", ev.Key, "error", err)
	}
}

func orderPayload(o *models.Order, lines []models.CartLine) events.OrderPayload {
	items := make([]events.ItemQty, 0, len(lines))
	for _, l := range lines {
		items = append(items, events.ItemQty{ProductID: l.ProductID.String(), Qty: l.Quantity})
	}
	return events.OrderPayload{
		OrderID:     o.ID.String(),
		UserID:      o.UserID.String(),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
	}
}
