package dto

import (
	"time"

	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
)

// ProductRequest is the body of POST and PUT /api/v1/products.
type ProductRequest struct {
	Name        string  `json:"name"        validate:"required,notblank,max=120"`
	Price       float64 `json:"price"       validate:"gt=0"`
	Category    string  `json:"category"    validate:"required,category"`
	Available   *bool   `json:"available"`
	Description string  `json:"description" validate:"max=500"`
	ProducerID  int     `json:"producerId"  validate:"gte=0"`
}

// ToDomain converts the request. A missing "available" means true.
func (r ProductRequest) ToDomain() domain.Product {
	available := true
	if r.Available != nil {
		available = *r.Available
	}

	return domain.Product{
		Name:        r.Name,
		Price:       r.Price,
		Category:    domain.Category(r.Category),
		Available:   available,
		Description: r.Description,
		ProducerID:  r.ProducerID,
	}
}

// ProductPatchRequest is the body of PATCH /api/v1/products/{id}. Absent
// fields are left unchanged.
type ProductPatchRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,notblank,max=120"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0"`
	Category    *string  `json:"category"    validate:"omitempty,category"`
	Available   *bool    `json:"available"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
}

// ToDomain converts the request.
func (r ProductPatchRequest) ToDomain() domain.ProductPatch {
	patch := domain.ProductPatch{
		Name:        r.Name,
		Price:       r.Price,
		Available:   r.Available,
		Description: r.Description,
	}

	if r.Category != nil {
		c := domain.Category(*r.Category)
		patch.Category = &c
	}

	return patch
}

// ProductListQuery holds the filters of GET /api/v1/products.
type ProductListQuery struct {
	Category string `form:"category" validate:"omitempty,category"`
	Sort     string `form:"sort"     validate:"omitempty,max=32"`
}

// ToDomain converts the query.
func (q ProductListQuery) ToDomain() domain.ProductFilter {
	return domain.ProductFilter{Category: domain.Category(q.Category), Order: q.Sort}
}

// ProductResponse is a product as returned by the gateway.
type ProductResponse struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Available   bool       `json:"available"`
	Description string     `json:"description,omitempty"`
	ProducerID  int        `json:"producerId,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// NewProductResponse converts a domain product.
func NewProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Category:    string(p.Category),
		Available:   p.Available,
		Description: p.Description,
		ProducerID:  p.ProducerID,
	}

	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt.UTC()
		resp.CreatedAt = &t
	}

	return resp
}

// NewProductListResponse converts a product listing; an empty listing is [].
func NewProductListResponse(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}

	return out
}

// ProducerRequest is the body of POST /api/v1/producers.
type ProducerRequest struct {
	Name     string `json:"name"     validate:"required,notblank,max=120"`
	Location string `json:"location" validate:"max=200"`
	Email    string `json:"email"    validate:"omitempty,email"`
}

// ToDomain converts the request.
func (r ProducerRequest) ToDomain() domain.Producer {
	return domain.Producer{Name: r.Name, Location: r.Location, Email: r.Email}
}

// ProducerResponse is a producer as returned by the gateway.
type ProducerResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Email    string `json:"email,omitempty"`
}

// NewProducerResponse converts a domain producer.
func NewProducerResponse(p *domain.Producer) ProducerResponse {
	return ProducerResponse{ID: p.ID, Name: p.Name, Location: p.Location, Email: p.Email}
}

// NewProducerListResponse converts a producer listing; an empty listing is [].
func NewProducerListResponse(producers []domain.Producer) []ProducerResponse {
	out := make([]ProducerResponse, 0, len(producers))
	for i := range producers {
		out = append(out, NewProducerResponse(&producers[i]))
	}

	return out
}

// ProducerDetailResponse is a producer with its catalog.
type ProducerDetailResponse struct {
	ProducerResponse

	Products []ProductResponse `json:"products"`
}

// NewProducerDetailResponse converts a domain producer detail.
func NewProducerDetailResponse(d *domain.ProducerDetail) ProducerDetailResponse {
	return ProducerDetailResponse{
		ProducerResponse: NewProducerResponse(&d.Producer),
		Products:         NewProductListResponse(d.Products),
	}
}

// OrderItemRequest is one line of an order.
type OrderItemRequest struct {
	ProductID int `json:"productId" validate:"gte=1"`
	Quantity  int `json:"quantity"  validate:"gte=1,lte=1000"`
}

// OrderRequest is the body of POST /api/v1/orders.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// ToDomain converts the request.
func (r OrderRequest) ToDomain() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return items
}

// OrderItemResponse is one line of a placed order.
type OrderItemResponse struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// OrderResponse is a placed order.
type OrderResponse struct {
	ID     int                 `json:"id"`
	Status string              `json:"status"`
	Total  float64             `json:"total"`
	Items  []OrderItemResponse `json:"items"`
}

// NewOrderResponse converts a domain order.
func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return OrderResponse{ID: o.ID, Status: o.Status, Total: o.Total, Items: items}
}
