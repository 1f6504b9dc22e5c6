package httpserver

import (
	"fmt"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/service"
	middleware "github.com/Skotchmaster/shop_orders/pkg/middleware/auth"
	"github.com/Skotchmaster/shop_orders/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var errNoIdentity = fmt.Errorf("no user on request: %w", domain.ErrUnauthenticated)

// GetID reads the user id the auth gate stored on the context.
func GetID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, errNoIdentity
	}
	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errNoIdentity
	}
	return userID, nil
}

func actor(c echo.Context) (service.Actor, error) {
	id, err := GetID(c)
	if err != nil {
		return service.Actor{}, err
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return service.Actor{UserID: id, Admin: role == tokens.RoleAdmin}, nil
}
