package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	jwthelp "github.com/Skotchmaster/shop_orders/pkg/jwt"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	middleware "github.com/Skotchmaster/shop_orders/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup_failed", "invalid body", err)
	}

	user, err := h.Svc.Signup(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return fail(l, "signup_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.NewUserResponse(user))
}

// Login answers with the token in the body and also sets it as a cookie for
// browser clients.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_failed", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(jwthelp.CreateCookie(middleware.AccessCookie, res.AccessToken, "/", res.AccessExp, h.CookieSecure))
	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.AccessExp,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(jwthelp.DeleteCookie(middleware.AccessCookie, "/", h.CookieSecure))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	userID, err := GetID(c)
	if err != nil {
		return fail(l, "me_failed", err)
	}

	user, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return fail(l, "me_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}
