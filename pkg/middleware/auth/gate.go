package middleware

import (
	"errors"
	"net/http"
	"strings"

	jwthelp "github.com/Skotchmaster/shop_orders/pkg/jwt"
	"github.com/Skotchmaster/shop_orders/pkg/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	AccessCookie = "accessToken"

	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

type AuthMiddleware struct {
	JWTSecret    []byte
	CookieSecure bool
}

func NewAuthMiddleware(secret []byte, cookieSecure bool) *AuthMiddleware {
	return &AuthMiddleware{JWTSecret: secret, CookieSecure: cookieSecure}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if !claims.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AuthMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			if fromCookie {
				c.SetCookie(jwthelp.DeleteCookie(AccessCookie, "/", m.CookieSecure))
			}
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

// accessToken prefers the Authorization header over the cookie.
func accessToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token), false
		}
		return "", false
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value, true
	}
	return "", false
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxUsername, claims.Username)
	c.Set(CtxRole, claims.Role)
}
