package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/retry"
)

// Upstream resource paths.
const (
	pathProducts  = "/productos"
	pathProducers = "/productores"
	pathOrders    = "/pedidos"
)

// EcoMarketConfig contains the collaborators of an EcoMarketClient.
type EcoMarketConfig struct {
	// Client performs single attempts against the EcoMarket base URL.
	Client *clients.Client

	// Retry wraps every operation. One Engine is shared by all calls.
	Retry *retry.Engine

	// Logger is the structured logger.
	Logger *slog.Logger
}

// EcoMarketClient implements ports.EcoMarketClient over the EcoMarket REST API.
type EcoMarketClient struct {
	client *clients.Client
	retry  *retry.Engine
	logger *slog.Logger
}

// NewEcoMarketClient creates the adapter.
// Panics if Client or Retry is nil. Defaults logger to slog.Default() if nil.
func NewEcoMarketClient(cfg EcoMarketConfig) *EcoMarketClient {
	if cfg.Client == nil {
		panic("EcoMarketClient: Client is required")
	}

	if cfg.Retry == nil {
		panic("EcoMarketClient: Retry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EcoMarketClient{
		client: cfg.Client,
		retry:  cfg.Retry,
		logger: logger,
	}
}

// call runs req through the retry engine. Each attempt is classified; only a
// response accepted by Classify is returned.
//
// POST and PATCH are not idempotent: once an attempt may have reached the
// upstream, a retry could create a second order or product. For those
// methods only failures that provably never left the gateway are retried.
func (c *EcoMarketClient) call(ctx context.Context, op string, req *clients.Request, expect Expectation) (*clients.Response, error) {
	ctx = retry.WithOperation(ctx, op)
	idempotent := isIdempotent(req.Method)

	c.logger.Log(ctx, logging.LevelTrace, "starting operation",
		slog.String("operation", op),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
	)

	return retry.Do(ctx, c.retry, func(ctx context.Context) (*clients.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			if errors.Is(err, clients.ErrCircuitOpen) {
				return nil, retry.Permanent(domain.NewTransportError(domain.TransportOther, err))
			}

			return nil, guardReplay(idempotent, ClassifyTransport(err))
		}

		if err := Classify(resp, expect); err != nil {
			return nil, guardReplay(idempotent, err)
		}

		return resp, nil
	})
}

func isIdempotent(method string) bool {
	return method != http.MethodPost && method != http.MethodPatch
}

// guardReplay marks err permanent when repeating the request could apply it
// twice. A refused connection means nothing was sent, so it stays retryable.
func guardReplay(idempotent bool, err error) error {
	if idempotent || !retry.IsRetryable(err) {
		return err
	}

	var te *domain.TransportError
	if errors.As(err, &te) && te.Kind == domain.TransportConnectionRefused {
		return err
	}

	return retry.Permanent(err)
}

func (c *EcoMarketClient) send(ctx context.Context, op, method, path string, payload any, expect Expectation) (*clients.Response, error) {
	body, err := encodeBody(payload)
	if err != nil {
		return nil, err
	}

	return c.call(ctx, op, &clients.Request{Method: method, Path: path, Body: body}, expect)
}

func productPath(id int) string {
	return pathProducts + "/" + strconv.Itoa(id)
}

func producerPath(id int) string {
	return pathProducers + "/" + strconv.Itoa(id)
}

// ListProducts fetches GET /productos with optional categoria and orden filters.
func (c *EcoMarketClient) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("categoria", string(filter.Category))
	}

	if filter.Order != "" {
		query.Set("orden", filter.Order)
	}

	resp, err := c.call(ctx, "list_products",
		&clients.Request{Method: http.MethodGet, Path: pathProducts, Query: query}, ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateList(resp, toProduct)
}

// GetProduct fetches GET /productos/{id}.
func (c *EcoMarketClient) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	resp, err := c.call(ctx, "get_product",
		&clients.Request{Method: http.MethodGet, Path: productPath(id)}, ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toProduct)
}

// CreateProduct sends POST /productos and requires 201 Created.
func (c *EcoMarketClient) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	resp, err := c.send(ctx, "create_product", http.MethodPost, pathProducts, fromProduct(p), ExpectCreated)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toProduct)
}

// ReplaceProduct sends PUT /productos/{id} with every field.
func (c *EcoMarketClient) ReplaceProduct(ctx context.Context, id int, p domain.Product) (*domain.Product, error) {
	resp, err := c.send(ctx, "replace_product", http.MethodPut, productPath(id), fromProduct(p), ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toProduct)
}

// PatchProduct sends PATCH /productos/{id} with only the changed fields.
func (c *EcoMarketClient) PatchProduct(ctx context.Context, id int, patch domain.ProductPatch) (*domain.Product, error) {
	resp, err := c.send(ctx, "patch_product", http.MethodPatch, productPath(id), fromProductPatch(patch), ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toProduct)
}

// DeleteProduct sends DELETE /productos/{id} and requires 204 No Content.
func (c *EcoMarketClient) DeleteProduct(ctx context.Context, id int) error {
	_, err := c.call(ctx, "delete_product",
		&clients.Request{Method: http.MethodDelete, Path: productPath(id)}, ExpectNoContent)

	return err
}

// ListProducers fetches GET /productores.
func (c *EcoMarketClient) ListProducers(ctx context.Context) ([]domain.Producer, error) {
	resp, err := c.call(ctx, "list_producers",
		&clients.Request{Method: http.MethodGet, Path: pathProducers}, ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateList(resp, toProducer)
}

// GetProducer fetches GET /productores/{id}.
func (c *EcoMarketClient) GetProducer(ctx context.Context, id int) (*domain.Producer, error) {
	resp, err := c.call(ctx, "get_producer",
		&clients.Request{Method: http.MethodGet, Path: producerPath(id)}, ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toProducer)
}

// CreateProducer sends POST /productores and requires 201 Created.
func (c *EcoMarketClient) CreateProducer(ctx context.Context, p domain.Producer) (*domain.Producer, error) {
	resp, err := c.send(ctx, "create_producer", http.MethodPost, pathProducers, fromProducer(p), ExpectCreated)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toProducer)
}

// DeleteProducer sends DELETE /productores/{id}. The upstream answers 409
// while the producer still owns products.
func (c *EcoMarketClient) DeleteProducer(ctx context.Context, id int) error {
	_, err := c.call(ctx, "delete_producer",
		&clients.Request{Method: http.MethodDelete, Path: producerPath(id)}, ExpectNoContent)

	return err
}

// ListProducerProducts fetches GET /productores/{id}/productos.
func (c *EcoMarketClient) ListProducerProducts(ctx context.Context, producerID int) ([]domain.Product, error) {
	resp, err := c.call(ctx, "list_producer_products",
		&clients.Request{Method: http.MethodGet, Path: producerPath(producerID) + pathProducts}, ExpectJSON)
	if err != nil {
		return nil, err
	}

	return translateList(resp, toProduct)
}

// CreateOrder sends POST /pedidos and requires 201 Created.
func (c *EcoMarketClient) CreateOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error) {
	resp, err := c.send(ctx, "create_order", http.MethodPost, pathOrders, fromOrderItems(items), ExpectCreated)
	if err != nil {
		return nil, err
	}

	return translateOne(resp, toOrder)
}

// Name implements ports.HealthChecker.
func (c *EcoMarketClient) Name() string {
	return c.client.ServiceName()
}

// Check implements ports.HealthChecker with a single unretried request. Any
// answer below 500 means the upstream is serving.
func (c *EcoMarketClient) Check(ctx context.Context) error {
	if state := c.client.CircuitState(); state == clients.StateOpen {
		return fmt.Errorf("circuit %s", state)
	}

	resp, err := c.client.Do(ctx, &clients.Request{Method: http.MethodGet, Path: pathProducers})
	if err != nil {
		return ClassifyTransport(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return nil
}

// HealthDetails implements ports.HealthDetailer with the circuit breaker counters.
func (c *EcoMarketClient) HealthDetails() map[string]string {
	counts := c.client.CircuitCounts()

	return map[string]string{
		"circuit":              counts.State.String(),
		"consecutive_failures": strconv.Itoa(counts.ConsecutiveFailures),
		"base_url":             c.client.BaseURL(),
	}
}

func translateOne[E any, D any](resp *clients.Response, translate Translator[E, D]) (*D, error) {
	ext, err := decodeInto[E](resp)
	if err != nil {
		return nil, err
	}

	v, err := translate(ext)
	if err != nil {
		return nil, attachResponse(err, resp)
	}

	return &v, nil
}

func translateList[E any, D any](resp *clients.Response, translate Translator[E, D]) ([]D, error) {
	items, err := decodeList[E](resp)
	if err != nil {
		return nil, err
	}

	out, err := TranslateSlice(items, translate)
	if err != nil {
		return nil, attachResponse(err, resp)
	}

	return out, nil
}

// attachResponse fills in the status and body a translator could not know.
func attachResponse(err error, resp *clients.Response) error {
	var be *domain.BusinessError
	if errors.As(err, &be) && be.Status == 0 {
		be.Status = resp.StatusCode
		be.Body = resp.Body
	}

	return err
}
