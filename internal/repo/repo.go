package repo

import (
	"context"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn against a repo bound to a single transaction. Nested
// calls become savepoints.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// pendingOrderIndex keeps at most one cart-mutable order per user.
const pendingOrderIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_user_pending ON orders (user_id) WHERE status = '` +
	string(domain.StatusPending) + `'`

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.CartLine{},
	); err != nil {
		return err
	}
	return db.Exec(pendingOrderIndex).Error
}
