package models

import (
	"time"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"                        json:"id"`
	Name         string          `gorm:"not null"                                    json:"name"`
	Category     string          `gorm:"not null;default:'';index"                   json:"category"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null;check:price > 0" json:"price"`
	Availability int             `gorm:"not null;check:availability >= 0"            json:"availability"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"                    json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"                json:"user_id"`
	Status      domain.Status   `gorm:"type:varchar(16);not null;index"         json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"   json:"total_amount"`
	OrderDate   *time.Time      `json:"order_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []CartLine      `gorm:"foreignKey:OrderID"                      json:"lines,omitempty"`
}

type CartLine struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"              json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey;index"        json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"       json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID"              json:"product,omitempty"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"   json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"   json:"email"`
	PasswordHash string    `gorm:"not null"               json:"-"`
	Role         string    `gorm:"not null;default:user"  json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (CartLine) TableName() string {
	return "cart_lines"
}
