// Package app contains the gateway use cases. Services validate input
// locally, then delegate to the EcoMarket port; they never see wire formats.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
	"github.com/jsamuelsen/ecomarket-gateway/internal/ports"
)

// CatalogService orchestrates product, producer and order use cases.
type CatalogService struct {
	upstream ports.EcoMarketClient
	logger   *slog.Logger
}

// CatalogServiceConfig contains the dependencies of the catalog service.
type CatalogServiceConfig struct {
	Upstream ports.EcoMarketClient
	Logger   *slog.Logger
}

// NewCatalogService creates the catalog service.
// Panics if Upstream is nil. Defaults logger to slog.Default() if nil.
func NewCatalogService(cfg CatalogServiceConfig) *CatalogService {
	if cfg.Upstream == nil {
		panic("CatalogService: Upstream is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogService{
		upstream: cfg.Upstream,
		logger:   logger.With(slog.String("component", "app.CatalogService")),
	}
}

// log prefers the request-scoped logger so request and trace IDs are attached.
func (s *CatalogService) log(ctx context.Context) *slog.Logger {
	if logger, ok := logging.FromContextOK(ctx); ok {
		return logger.With(slog.String("component", "app.CatalogService"))
	}

	return s.logger
}

// ListProducts returns the products matching filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.NewValidationError("category", fmt.Sprintf("unknown category %q", filter.Category))
	}

	products, err := s.upstream.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.log(ctx).DebugContext(ctx, "listed products",
		slog.String("category", string(filter.Category)),
		slog.Int("count", len(products)),
	)

	return products, nil
}

// GetProduct returns a single product.
func (s *CatalogService) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	return s.upstream.GetProduct(ctx, id)
}

// CreateProduct validates p and creates it upstream.
func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	created, err := s.upstream.CreateProduct(ctx, p)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "creating product failed", slog.Any("error", err))
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "created product",
		slog.Int("product_id", created.ID),
		slog.String("category", string(created.Category)),
	)

	return created, nil
}

// ReplaceProduct overwrites every field of product id.
func (s *CatalogService) ReplaceProduct(ctx context.Context, id int, p domain.Product) (*domain.Product, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	if err := validateProduct(p); err != nil {
		return nil, err
	}

	updated, err := s.upstream.ReplaceProduct(ctx, id, p)
	if err != nil {
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "replaced product", slog.Int("product_id", id))

	return updated, nil
}

// PatchProduct applies a partial update. An empty patch is rejected.
func (s *CatalogService) PatchProduct(ctx context.Context, id int, patch domain.ProductPatch) (*domain.Product, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := s.upstream.PatchProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "patched product", slog.Int("product_id", id))

	return updated, nil
}

// DeleteProduct removes product id.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	if err := validateID("id", id); err != nil {
		return err
	}

	if err := s.upstream.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.log(ctx).InfoContext(ctx, "deleted product", slog.Int("product_id", id))

	return nil
}

// ListProducers returns every producer.
func (s *CatalogService) ListProducers(ctx context.Context) ([]domain.Producer, error) {
	return s.upstream.ListProducers(ctx)
}

// GetProducer returns a single producer.
func (s *CatalogService) GetProducer(ctx context.Context, id int) (*domain.Producer, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	return s.upstream.GetProducer(ctx, id)
}

// ListProducerProducts returns the products of producer id.
func (s *CatalogService) ListProducerProducts(ctx context.Context, id int) ([]domain.Product, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	return s.upstream.ListProducerProducts(ctx, id)
}

// ProducerDetail fetches a producer and its products concurrently. If either
// call fails the other is canceled and the first error is returned.
func (s *CatalogService) ProducerDetail(ctx context.Context, id int) (*domain.ProducerDetail, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	producer, products, err := Parallel2(ctx,
		func(ctx context.Context) (*domain.Producer, error) {
			return s.upstream.GetProducer(ctx, id)
		},
		func(ctx context.Context) ([]domain.Product, error) {
			return s.upstream.ListProducerProducts(ctx, id)
		},
	)
	if err != nil {
		return nil, err
	}

	return &domain.ProducerDetail{Producer: *producer, Products: products}, nil
}

// CreateProducer validates p and creates it upstream.
func (s *CatalogService) CreateProducer(ctx context.Context, p domain.Producer) (*domain.Producer, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	created, err := s.upstream.CreateProducer(ctx, p)
	if err != nil {
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "created producer", slog.Int("producer_id", created.ID))

	return created, nil
}

// DeleteProducer removes producer id. The upstream refuses while the
// producer still owns products.
func (s *CatalogService) DeleteProducer(ctx context.Context, id int) error {
	if err := validateID("id", id); err != nil {
		return err
	}

	if err := s.upstream.DeleteProducer(ctx, id); err != nil {
		if domain.IsConflict(err) {
			s.log(ctx).InfoContext(ctx, "producer still owns products", slog.Int("producer_id", id))
		}

		return err
	}

	s.log(ctx).InfoContext(ctx, "deleted producer", slog.Int("producer_id", id))

	return nil
}

// PlaceOrder validates the items and submits the order.
func (s *CatalogService) PlaceOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}

	for i, it := range items {
		if it.ProductID <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "must be positive")
		}

		if it.Quantity <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
	}

	order, err := s.upstream.CreateOrder(ctx, items)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "placing order failed", slog.Any("error", err))
		return nil, err
	}

	s.log(ctx).InfoContext(ctx, "placed order",
		slog.Int("order_id", order.ID),
		slog.Int("items", len(order.Items)),
		slog.Float64("total", order.Total),
	)

	return order, nil
}

func validateID(field string, id int) error {
	if id <= 0 {
		return domain.NewValidationError(field, "must be positive")
	}

	return nil
}

func validateProduct(p domain.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return domain.NewValidationError("name", "is required")
	case p.Price <= 0:
		return domain.NewValidationError("price", "must be greater than zero")
	case !p.Category.Valid():
		return domain.NewValidationError("category", fmt.Sprintf("unknown category %q", p.Category))
	case p.ProducerID < 0:
		return domain.NewValidationError("producerId", "must be positive")
	}

	return nil
}

func validatePatch(patch domain.ProductPatch) error {
	switch {
	case patch.Empty():
		return domain.NewValidationError("", "patch changes nothing")
	case patch.Name != nil && strings.TrimSpace(*patch.Name) == "":
		return domain.NewValidationError("name", "cannot be empty")
	case patch.Price != nil && *patch.Price <= 0:
		return domain.NewValidationError("price", "must be greater than zero")
	case patch.Category != nil && !patch.Category.Valid():
		return domain.NewValidationError("category", fmt.Sprintf("unknown category %q", *patch.Category))
	}

	return nil
}
