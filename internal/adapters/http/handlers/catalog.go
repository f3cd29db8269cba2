package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/ecomarket-gateway/internal/app"
)

// CatalogHandler serves products, producers and orders.
type CatalogHandler struct {
	service *app.CatalogService
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(service *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterCatalogRoutes registers the catalog routes on rg.
func (h *CatalogHandler) RegisterCatalogRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.ReplaceProduct)
	products.PATCH("/:id", h.PatchProduct)
	products.DELETE("/:id", h.DeleteProduct)

	producers := rg.Group("/producers")
	producers.GET("", h.ListProducers)
	producers.POST("", h.CreateProducer)
	producers.GET("/:id", h.GetProducer)
	producers.DELETE("/:id", h.DeleteProducer)
	producers.GET("/:id/products", h.ListProducerProducts)

	rg.POST("/orders", h.PlaceOrder)
}

// pathID parses the :id parameter. On failure it writes a 400 and returns false.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrorCodeBadRequest,
			"id must be an integer",
		).WithTraceID(dto.TraceID(c.Request.Context())))

		return 0, false
	}

	return id, true
}
