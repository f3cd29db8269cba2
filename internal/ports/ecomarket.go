// Package ports defines the contracts between the application layer and its
// adapters. Ports speak domain types only; wire formats stay in the adapters.
//
// Port conventions:
//   - Context as first parameter
//   - Failures are *domain.BusinessError or *domain.TransportError
//   - A method returns a value or an error, never neither
package ports

import (
	"context"

	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
)

// ProductCatalog reads and writes EcoMarket products.
type ProductCatalog interface {
	// ListProducts returns products matching filter. An empty catalog is an
	// empty slice, not nil.
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)

	// GetProduct returns domain.ErrNotFound if the product does not exist.
	GetProduct(ctx context.Context, id int) (*domain.Product, error)

	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)

	// ReplaceProduct overwrites every field of an existing product.
	ReplaceProduct(ctx context.Context, id int, p domain.Product) (*domain.Product, error)

	// PatchProduct changes only the fields set in patch.
	PatchProduct(ctx context.Context, id int, patch domain.ProductPatch) (*domain.Product, error)

	DeleteProduct(ctx context.Context, id int) error
}

// ProducerDirectory reads and writes EcoMarket producers.
type ProducerDirectory interface {
	ListProducers(ctx context.Context) ([]domain.Producer, error)
	GetProducer(ctx context.Context, id int) (*domain.Producer, error)
	CreateProducer(ctx context.Context, p domain.Producer) (*domain.Producer, error)

	// DeleteProducer returns domain.ErrConflict while the producer still
	// owns products.
	DeleteProducer(ctx context.Context, id int) error

	ListProducerProducts(ctx context.Context, producerID int) ([]domain.Product, error)
}

// OrderPlacer submits orders.
type OrderPlacer interface {
	// CreateOrder returns a conflict error with code domain.CodeStockOut when
	// an item is out of stock.
	CreateOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error)
}

// EcoMarketClient is the full upstream surface the gateway relies on.
type EcoMarketClient interface {
	ProductCatalog
	ProducerDirectory
	OrderPlacer
}
