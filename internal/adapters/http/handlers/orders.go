package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/dto"
)

// PlaceOrder handles POST /api/v1/orders
//
// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Param order body dto.OrderRequest true "Order items"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "An item is out of stock (details.upstreamCode STOCK_OUT)"
// @Router /api/v1/orders [post]
func (h *CatalogHandler) PlaceOrder(c *gin.Context) {
	var req dto.OrderRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	order, err := h.service.PlaceOrder(c.Request.Context(), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewOrderResponse(order))
}
