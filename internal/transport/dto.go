package transport

import (
	"time"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Availability int             `json:"availability"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// RemoveItemRequest deletes the whole line when Quantity is zero.
type RemoveItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CartResponse struct {
	OrderID     *uuid.UUID        `json:"order_id"`
	Status      string            `json:"status,omitempty"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Lines       []models.CartLine `json:"lines"`
}

type CheckoutResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	OrderDate   time.Time       `json:"order_date"`
}

type SignupRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

func NewCartResponse(o *models.Order) CartResponse {
	if o == nil {
		return CartResponse{TotalAmount: decimal.Zero, Lines: []models.CartLine{}}
	}
	lines := o.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	id := o.ID
	return CartResponse{
		OrderID:     &id,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Lines:       lines,
	}
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
