package httpserver

import (
	"net/http"
	"time"

	pkgdb "github.com/Skotchmaster/shop_orders/pkg/db"
	middleware "github.com/Skotchmaster/shop_orders/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	AuthHandler    *AuthHTTP

	JWTSecret    []byte
	CookieSecure bool
	DB           *gorm.DB

	// AuthRate limits signup and login per client IP. Zero disables it.
	AuthRate  rate.Limit
	AuthBurst int
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAuthMiddleware(d.JWTSecret, d.CookieSecure)

	var limited []echo.MiddlewareFunc
	if d.AuthRate > 0 {
		limited = append(limited, echomw.RateLimiter(echomw.NewRateLimiterMemoryStoreWithConfig(
			echomw.RateLimiterMemoryStoreConfig{Rate: d.AuthRate, Burst: d.AuthBurst, ExpiresIn: 3 * time.Minute},
		)))
	}

	auth := e.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup, limited...)
	auth.POST("/login", d.AuthHandler.Login, limited...)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, authMW.RequireAuth)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.ListAvailable)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, authMW.RequireAdmin)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add", d.CartHandler.AddItem)
	cart.POST("/remove", d.CartHandler.RemoveItem)

	e.POST("/checkout", d.OrderHandler.Checkout, authMW.RequireAuth)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/ship", d.OrderHandler.Ship)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel)
}
