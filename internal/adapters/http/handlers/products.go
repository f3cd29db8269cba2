package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/dto"
)

// ListProducts handles GET /api/v1/products?category=&sort=
//
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "frutas, verduras, lacteos, miel or conservas"
// @Param sort query string false "Upstream sort key, e.g. precio or -precio"
// @Success 200 {array} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var q dto.ProductListQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	products, err := h.service.ListProducts(c.Request.Context(), q.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProductListResponse(products))
}

// GetProduct handles GET /api/v1/products/:id
//
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(product))
}

// CreateProduct handles POST /api/v1/products
//
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param product body dto.ProductRequest true "Product"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewProductResponse(product))
}

// ReplaceProduct handles PUT /api/v1/products/:id
//
// @Summary Replace a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body dto.ProductRequest true "Product"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/products/{id} [put]
func (h *CatalogHandler) ReplaceProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ProductRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	product, err := h.service.ReplaceProduct(c.Request.Context(), id, req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(product))
}

// PatchProduct handles PATCH /api/v1/products/:id. Upstream failures are
// not retried once the request may have been applied.
//
// @Summary Update some fields of a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param patch body dto.ProductPatchRequest true "Fields to change"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/products/{id} [patch]
func (h *CatalogHandler) PatchProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ProductPatchRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	product, err := h.service.PatchProduct(c.Request.Context(), id, req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(product))
}

// DeleteProduct handles DELETE /api/v1/products/:id
//
// @Summary Delete a product
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
