package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/events"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events events.Publisher
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name required: %w", domain.ErrValidation)
	}
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("price must be > 0: %w", domain.ErrValidation)
	}
	if req.Availability < 0 {
		return nil, fmt.Errorf("availability must be >= 0: %w", domain.ErrValidation)
	}

	prod := &models.Product{
		Name:         name,
		Category:     strings.TrimSpace(req.Category),
		Price:        req.Price,
		Availability: req.Availability,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, domain.Persistence("create product", err)
	}

	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "product_id", prod.ID)
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, prod); err != nil {
			l.Warn("product_index_failed", "error", err)
		}
	}
	publish(ctx, s.Events, events.Event{
		Type: events.TypeProductCreated,
		Key:  prod.ID.String(),
		Payload: events.ProductPayload{
			ProductID:    prod.ID.String(),
			Name:         prod.Name,
			Category:     prod.Category,
			Price:        prod.Price.StringFixed(2),
			Availability: prod.Availability,
		},
	})

	return prod, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, lookup("product", err)
	}
	return p, nil
}

func (s *CatalogService) ListAvailable(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	total, items, err := s.Repo.ListAvailable(ctx, offset, limit)
	if err != nil {
		return 0, nil, domain.Persistence("list products", err)
	}
	return total, items, nil
}

// SearchProducts ranks with the search index and returns only products the
// database still reports in stock, in index order.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("query required: %w", domain.ErrValidation)
	}
	if s.Index == nil {
		return 0, nil, fmt.Errorf("search index is not configured: %w", domain.ErrPersistence)
	}

	total, ids, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, domain.Persistence("search products", err)
	}

	found, err := s.Repo.AvailableByIDs(ctx, ids)
	if err != nil {
		return 0, nil, domain.Persistence("load products", err)
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	items := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return total, items, nil
}
