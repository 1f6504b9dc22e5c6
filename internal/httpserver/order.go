package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	"github.com/Skotchmaster/shop_orders/internal/util"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}

	res, err := h.Svc.Checkout(ctx, userID)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}

	return c.JSON(http.StatusOK, transport.CheckoutResponse{
		OrderID:     res.OrderID,
		TotalAmount: res.TotalAmount,
		Status:      string(domain.StatusPaid),
		OrderDate:   res.OrderDate,
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	who, err := actor(c)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "get_order_failed", "id is not a uuid", err)
	}

	order, err := h.Svc.GetOrder(ctx, id, who)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Ship(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.ship")

	who, err := actor(c)
	if err != nil {
		return fail(l, "ship_failed", err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "ship_failed", "id is not a uuid", err)
	}

	order, err := h.Svc.Ship(ctx, id, who)
	if err != nil {
		return fail(l, "ship_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "cancel_failed", err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "cancel_failed", "id is not a uuid", err)
	}

	order, err := h.Svc.Cancel(ctx, id, userID)
	if err != nil {
		return fail(l, "cancel_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}
