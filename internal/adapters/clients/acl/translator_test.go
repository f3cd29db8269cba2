package acl

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/ecomarket-gateway/internal/domain"
)

func TestTranslateSlice_Success(t *testing.T) {
	type External struct{ Value int }
	type Domain struct{ DoubledValue int }

	items := []External{{Value: 1}, {Value: 2}, {Value: 3}}

	result, err := TranslateSlice(items, func(ext *External) (Domain, error) {
		return Domain{DoubledValue: ext.Value * 2}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []Domain{{2}, {4}, {6}}, result)
}

func TestTranslateSlice_Error(t *testing.T) {
	type External struct{ Value int }

	items := []External{{Value: 1}, {Value: -1}, {Value: 3}}

	_, err := TranslateSlice(items, func(ext *External) (int, error) {
		if ext.Value < 0 {
			return 0, domain.NewValidationError("value", "must be positive")
		}

		return ext.Value, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
	assert.True(t, domain.IsValidation(err))
}

func TestTranslateSlice_EmptySlice(t *testing.T) {
	result, err := TranslateSlice([]int{}, func(ext *int) (int, error) { return *ext, nil })

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestDecodeInto(t *testing.T) {
	t.Run("decodes object", func(t *testing.T) {
		got, err := decodeInto[productoDTO](jsonResponse(http.StatusOK, `{"id":7,"nombre":"Miel"}`))

		require.NoError(t, err)
		assert.Equal(t, 7, got.ID)
		assert.Equal(t, "Miel", got.Nombre)
	})

	t.Run("empty body is a validation error", func(t *testing.T) {
		_, err := decodeInto[productoDTO](jsonResponse(http.StatusNoContent, ""))

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Contains(t, err.Error(), "empty body")
	})

	t.Run("null is a validation error", func(t *testing.T) {
		got, err := decodeInto[productoDTO](jsonResponse(http.StatusOK, " null\n"))

		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, domain.IsValidation(err))
		assert.Contains(t, err.Error(), "null body")
	})

	t.Run("type mismatch is a validation error", func(t *testing.T) {
		_, err := decodeInto[productoDTO](jsonResponse(http.StatusOK, `{"precio":"caro"}`))

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Contains(t, err.Error(), "decoding response")
	})
}

func TestDecodeList(t *testing.T) {
	for name, body := range map[string]string{"empty body": "", "null": "null", "empty array": "[]"} {
		t.Run(name, func(t *testing.T) {
			got, err := decodeList[productoDTO](jsonResponse(http.StatusOK, body))

			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestToProduct(t *testing.T) {
	ext := &productoDTO{
		ID:          42,
		Nombre:      "Miel de Abeja",
		Precio:      150,
		Categoria:   "miel",
		Disponible:  true,
		Descripcion: "Miel pura",
		Productor:   &producerRef{ID: 10, Nombre: "Apiarios del Valle"},
		CreadoEn:    "2024-01-15T10:30:00Z",
	}

	p, err := toProduct(ext)

	require.NoError(t, err)
	assert.Equal(t, domain.Product{
		ID:          42,
		Name:        "Miel de Abeja",
		Price:       150,
		Category:    domain.CategoryHoney,
		Available:   true,
		Description: "Miel pura",
		ProducerID:  10,
		CreatedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}, p)
}

func TestToProduct_FlatProducerAndBadTimestamp(t *testing.T) {
	p, err := toProduct(&productoDTO{ID: 1, ProductorID: 3, CreadoEn: "yesterday"})

	require.NoError(t, err)
	assert.Equal(t, 3, p.ProducerID)
	assert.True(t, p.CreatedAt.IsZero())
}

func TestTranslators_RejectEntitiesWithoutID(t *testing.T) {
	_, err := toProduct(&productoDTO{Nombre: "Miel"})
	assert.True(t, domain.IsValidation(err))

	_, err = toProducer(&productorDTO{Nombre: "Granja Sol"})
	assert.True(t, domain.IsValidation(err))

	_, err = toOrder(&pedidoDTO{Estado: "pendiente"})
	assert.True(t, domain.IsValidation(err))
}

func TestToOrder_BadItemNamesItsIndex(t *testing.T) {
	_, err := toOrder(&pedidoDTO{
		ID:    900,
		Items: []pedidoItemDTO{{ProductoID: 42, Cantidad: 2}, {ProductoID: 0, Cantidad: 1}},
	})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "translating item 1")
}

func TestFromProductPatch_OnlySetFields(t *testing.T) {
	price := 180.0
	cat := domain.CategoryHoney

	dto := fromProductPatch(domain.ProductPatch{Price: &price, Category: &cat})

	body, err := encodeBody(dto)
	require.NoError(t, err)
	assert.JSONEq(t, `{"precio":180,"categoria":"miel"}`, string(body))
}

func TestFromOrderItems(t *testing.T) {
	body, err := encodeBody(fromOrderItems([]domain.OrderItem{{ProductID: 1, Quantity: 2}}))

	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"producto_id":1,"cantidad":2}]}`, string(body))
}

func jsonResponse(status int, body string) *clients.Response {
	return &clients.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}
