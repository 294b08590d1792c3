package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/bodega-api/internal/application/dto"
	"github.com/jhoicas/bodega-api/internal/application/inventory"
)

// InventoryHandler consulta de existencias (protegido). Las mutaciones solo ocurren al completar documentos.
type InventoryHandler struct {
	ledger *inventory.Ledger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// GetStock godoc
// @Summary      Existencia actual de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  int  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.ledger.GetStock(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.StockResponse{ProductID: rec.ProductID, Quantity: rec.Quantity}
	if !rec.LastUpdatedAt.IsZero() {
		t := rec.LastUpdatedAt
		out.LastUpdatedAt = &t
	}
	return c.JSON(out)
}
