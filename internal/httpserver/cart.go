package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}

	order, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(order))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "add_item_failed", err)
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item_failed", "invalid body", err)
	}

	order, err := h.Svc.AddItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_item_failed", err)
	}

	l.Info("add_item_success", "order_id", order.ID, "product_id", req.ProductID, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, transport.NewCartResponse(order))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "remove_item_failed", err)
	}

	var req transport.RemoveItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "remove_item_failed", "invalid body", err)
	}

	order, err := h.Svc.RemoveItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "remove_item_failed", err)
	}

	l.Info("remove_item_success", "order_id", order.ID, "product_id", req.ProductID)
	return c.JSON(http.StatusOK, transport.NewCartResponse(order))
}
