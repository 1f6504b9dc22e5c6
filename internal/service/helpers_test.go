package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Skotchmaster/shop_orders/internal/events"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepo opens a private sqlite file per test. A single connection
// serialises transactions the way row locks would on postgres.
func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "shop.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.Migrate(db))
	return &repo.GormRepo{DB: db}
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, availability int, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         name,
		Category:     "test",
		Price:        decimal.RequireFromString(price),
		Availability: availability,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func availability(t *testing.T, r *repo.GormRepo, id uuid.UUID) int {
	t.Helper()
	p, err := r.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Availability
}

func countOrders(t *testing.T, r *repo.GormRepo, userID uuid.UUID, status string) int64 {
	t.Helper()
	var n int64
	q := r.DB.Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// assertTotalConsistent checks total_amount against the lines actually stored.
func assertTotalConsistent(t *testing.T, r *repo.GormRepo, orderID uuid.UUID) {
	t.Helper()
	order, err := r.GetOrderWithLines(context.Background(), orderID)
	require.NoError(t, err)

	want := decimal.Zero
	for _, l := range order.Lines {
		require.NotNil(t, l.Product)
		require.Positive(t, l.Quantity)
		want = want.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	require.True(t, want.Equal(order.TotalAmount), "total %s, lines sum to %s", order.TotalAmount, want)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type memCache struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*models.Order
	invalidated []uuid.UUID
	gets        int
}

func newMemCache() *memCache {
	return &memCache{orders: map[uuid.UUID]*models.Order{}}
}

func (c *memCache) Get(_ context.Context, id uuid.UUID) (*models.Order, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	o, ok := c.orders[id]
	return o, ok, nil
}

func (c *memCache) Set(_ context.Context, o *models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[o.ID] = o
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}
