package acl

import (
	"fmt"
	"time"

	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
)

// EcoMarket wire types. They mirror the upstream JSON and stay unexported.

type producerRef struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre,omitempty"`
}

type productoDTO struct {
	ID          int          `json:"id"`
	Nombre      string       `json:"nombre"`
	Precio      float64      `json:"precio"`
	Categoria   string       `json:"categoria"`
	Disponible  bool         `json:"disponible"`
	Descripcion string       `json:"descripcion,omitempty"`
	Productor   *producerRef `json:"productor,omitempty"`
	ProductorID int          `json:"productor_id,omitempty"`
	CreadoEn    string       `json:"creado_en,omitempty"`
}

// productoWriteDTO is the body of POST and PUT /productos.
type productoWriteDTO struct {
	Nombre      string  `json:"nombre"`
	Precio      float64 `json:"precio"`
	Categoria   string  `json:"categoria"`
	Disponible  bool    `json:"disponible"`
	Descripcion string  `json:"descripcion,omitempty"`
	ProductorID int     `json:"productor_id,omitempty"`
}

// productoPatchDTO is the body of PATCH /productos/{id}; only set fields are sent.
type productoPatchDTO struct {
	Nombre      *string  `json:"nombre,omitempty"`
	Precio      *float64 `json:"precio,omitempty"`
	Categoria   *string  `json:"categoria,omitempty"`
	Disponible  *bool    `json:"disponible,omitempty"`
	Descripcion *string  `json:"descripcion,omitempty"`
}

type productorDTO struct {
	ID        int    `json:"id,omitempty"`
	Nombre    string `json:"nombre"`
	Ubicacion string `json:"ubicacion,omitempty"`
	Email     string `json:"email,omitempty"`
}

type pedidoItemDTO struct {
	ProductoID int `json:"producto_id"`
	Cantidad   int `json:"cantidad"`
}

type pedidoRequestDTO struct {
	Items []pedidoItemDTO `json:"items"`
}

type pedidoDTO struct {
	ID     int             `json:"id"`
	Items  []pedidoItemDTO `json:"items"`
	Estado string          `json:"estado"`
	Total  float64         `json:"total"`
}

// invalidPayload reports an upstream entity that decoded but cannot be real.
func invalidPayload(format string, args ...any) error {
	return domain.NewBusinessError(domain.KindValidation, 0, fmt.Sprintf(format, args...), nil)
}

func toProduct(ext *productoDTO) (domain.Product, error) {
	if ext.ID <= 0 {
		return domain.Product{}, invalidPayload("product without id")
	}

	p := domain.Product{
		ID:          ext.ID,
		Name:        ext.Nombre,
		Price:       ext.Precio,
		Category:    domain.Category(ext.Categoria),
		Available:   ext.Disponible,
		Description: ext.Descripcion,
		ProducerID:  ext.ProductorID,
	}

	if ext.Productor != nil {
		p.ProducerID = ext.Productor.ID
	}

	// Timestamps are informational; an unparseable one is left zero.
	if ext.CreadoEn != "" {
		if t, err := time.Parse(time.RFC3339, ext.CreadoEn); err == nil {
			p.CreatedAt = t
		}
	}

	return p, nil
}

func fromProduct(p domain.Product) productoWriteDTO {
	return productoWriteDTO{
		Nombre:      p.Name,
		Precio:      p.Price,
		Categoria:   string(p.Category),
		Disponible:  p.Available,
		Descripcion: p.Description,
		ProductorID: p.ProducerID,
	}
}

func fromProductPatch(p domain.ProductPatch) productoPatchDTO {
	dto := productoPatchDTO{
		Nombre:      p.Name,
		Precio:      p.Price,
		Disponible:  p.Available,
		Descripcion: p.Description,
	}

	if p.Category != nil {
		c := string(*p.Category)
		dto.Categoria = &c
	}

	return dto
}

func toProducer(ext *productorDTO) (domain.Producer, error) {
	if ext.ID <= 0 {
		return domain.Producer{}, invalidPayload("producer without id")
	}

	return domain.Producer{
		ID:       ext.ID,
		Name:     ext.Nombre,
		Location: ext.Ubicacion,
		Email:    ext.Email,
	}, nil
}

func fromProducer(p domain.Producer) productorDTO {
	return productorDTO{
		Nombre:    p.Name,
		Ubicacion: p.Location,
		Email:     p.Email,
	}
}

func toOrder(ext *pedidoDTO) (domain.Order, error) {
	if ext.ID <= 0 {
		return domain.Order{}, invalidPayload("order without id")
	}

	items, err := TranslateSlice(ext.Items, toOrderItem)
	if err != nil {
		return domain.Order{}, err
	}

	return domain.Order{
		ID:     ext.ID,
		Items:  items,
		Status: ext.Estado,
		Total:  ext.Total,
	}, nil
}

func toOrderItem(ext *pedidoItemDTO) (domain.OrderItem, error) {
	if ext.ProductoID <= 0 || ext.Cantidad <= 0 {
		return domain.OrderItem{}, invalidPayload("order item with producto_id %d and cantidad %d", ext.ProductoID, ext.Cantidad)
	}

	return domain.OrderItem{ProductID: ext.ProductoID, Quantity: ext.Cantidad}, nil
}

func fromOrderItems(items []domain.OrderItem) pedidoRequestDTO {
	dto := pedidoRequestDTO{Items: make([]pedidoItemDTO, 0, len(items))}
	for _, it := range items {
		dto.Items = append(dto.Items, pedidoItemDTO{ProductoID: it.ProductID, Cantidad: it.Quantity})
	}

	return dto
}
