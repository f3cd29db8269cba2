// Package mocks holds testify mocks of the ports used by app and handler tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
	"github.com/jsamuelsen/ecomarket-gateway/internal/ports"
)

var _ ports.EcoMarketClient = (*EcoMarketClient)(nil)

// EcoMarketClient is a mock of ports.EcoMarketClient.
type EcoMarketClient struct {
	mock.Mock
}

// NewEcoMarketClient creates a mock whose expectations are asserted on cleanup.
func NewEcoMarketClient(t interface {
	mock.TestingT
	Cleanup(func())
},
) *EcoMarketClient {
	m := &EcoMarketClient{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func result[T any](args mock.Arguments, i int) T {
	var zero T
	if v := args.Get(i); v != nil {
		return v.(T)
	}

	return zero
}

// ListProducts mocks ports.ProductCatalog.
func (m *EcoMarketClient) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return result[[]domain.Product](args, 0), args.Error(1)
}

// GetProduct mocks ports.ProductCatalog.
func (m *EcoMarketClient) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	args := m.Called(ctx, id)
	return result[*domain.Product](args, 0), args.Error(1)
}

// CreateProduct mocks ports.ProductCatalog.
func (m *EcoMarketClient) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	return result[*domain.Product](args, 0), args.Error(1)
}

// ReplaceProduct mocks ports.ProductCatalog.
func (m *EcoMarketClient) ReplaceProduct(ctx context.Context, id int, p domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, id, p)
	return result[*domain.Product](args, 0), args.Error(1)
}

// PatchProduct mocks ports.ProductCatalog.
func (m *EcoMarketClient) PatchProduct(ctx context.Context, id int, patch domain.ProductPatch) (*domain.Product, error) {
	args := m.Called(ctx, id, patch)
	return result[*domain.Product](args, 0), args.Error(1)
}

// DeleteProduct mocks ports.ProductCatalog.
func (m *EcoMarketClient) DeleteProduct(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// ListProducers mocks ports.ProducerDirectory.
func (m *EcoMarketClient) ListProducers(ctx context.Context) ([]domain.Producer, error) {
	args := m.Called(ctx)
	return result[[]domain.Producer](args, 0), args.Error(1)
}

// GetProducer mocks ports.ProducerDirectory.
func (m *EcoMarketClient) GetProducer(ctx context.Context, id int) (*domain.Producer, error) {
	args := m.Called(ctx, id)
	return result[*domain.Producer](args, 0), args.Error(1)
}

// CreateProducer mocks ports.ProducerDirectory.
func (m *EcoMarketClient) CreateProducer(ctx context.Context, p domain.Producer) (*domain.Producer, error) {
	args := m.Called(ctx, p)
	return result[*domain.Producer](args, 0), args.Error(1)
}

// DeleteProducer mocks ports.ProducerDirectory.
func (m *EcoMarketClient) DeleteProducer(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// ListProducerProducts mocks ports.ProducerDirectory.
func (m *EcoMarketClient) ListProducerProducts(ctx context.Context, producerID int) ([]domain.Product, error) {
	args := m.Called(ctx, producerID)
	return result[[]domain.Product](args, 0), args.Error(1)
}

// CreateOrder mocks ports.OrderPlacer.
func (m *EcoMarketClient) CreateOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error) {
	args := m.Called(ctx, items)
	return result[*domain.Order](args, 0), args.Error(1)
}
