package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/dto"
)

// ListProducers handles GET /api/v1/producers
//
// @Summary List producers
// @Tags producers
// @Produce json
// @Success 200 {array} dto.ProducerResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/producers [get]
func (h *CatalogHandler) ListProducers(c *gin.Context) {
	producers, err := h.service.ListProducers(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProducerListResponse(producers))
}

// GetProducer handles GET /api/v1/producers/:id and embeds the producer's
// products.
//
// @Summary Get a producer with its products
// @Tags producers
// @Produce json
// @Param id path int true "Producer ID"
// @Success 200 {object} dto.ProducerDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/producers/{id} [get]
func (h *CatalogHandler) GetProducer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.service.ProducerDetail(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProducerDetailResponse(detail))
}

// CreateProducer handles POST /api/v1/producers
//
// @Summary Register a producer
// @Tags producers
// @Accept json
// @Produce json
// @Param producer body dto.ProducerRequest true "Producer"
// @Success 201 {object} dto.ProducerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/producers [post]
func (h *CatalogHandler) CreateProducer(c *gin.Context) {
	var req dto.ProducerRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	producer, err := h.service.CreateProducer(c.Request.Context(), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewProducerResponse(producer))
}

// DeleteProducer handles DELETE /api/v1/producers/:id. A producer that still
// owns products answers 409.
//
// @Summary Delete a producer
// @Tags producers
// @Param id path int true "Producer ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/producers/{id} [delete]
func (h *CatalogHandler) DeleteProducer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProducer(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListProducerProducts handles GET /api/v1/producers/:id/products
//
// @Summary List the products of a producer
// @Tags producers
// @Produce json
// @Param id path int true "Producer ID"
// @Success 200 {array} dto.ProductResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/producers/{id}/products [get]
func (h *CatalogHandler) ListProducerProducts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	products, err := h.service.ListProducerProducts(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProductListResponse(products))
}
