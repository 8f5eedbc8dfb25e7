package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
)

// StockBatchHandler maneja lotes y el maestro de productos (protegido).
type StockBatchHandler struct {
	uc *usecase.StockBatchUseCase
}

// NewStockBatchHandler construye el handler.
func NewStockBatchHandler(uc *usecase.StockBatchUseCase) *StockBatchHandler {
	return &StockBatchHandler{uc: uc}
}

// Create godoc
// @Summary      Crear lote para un producto existente
// @Tags         stock-batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockBatchRequest  true  "datos del lote"
// @Success      201   {object}  dto.StockBatchDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-batches [post]
func (h *StockBatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockBatchRequest
	if !parseBody(c, &in) {
		return nil
	}
	batch, err := h.uc.Create(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(batch)
}

// GetByID godoc
// @Summary      Lote por ID
// @Tags         stock-batches
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del lote"
// @Success      200  {object}  dto.StockBatchDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-batches/{id} [get]
func (h *StockBatchHandler) GetByID(c *fiber.Ctx) error {
	batch, err := h.uc.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batch)
}

// ListByProduct godoc
// @Summary      Lotes de un producto
// @Tags         stock-batches
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        limit       query  int     false  "máximo por página (default 20)"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {array}  dto.StockBatchDTO
// @Router       /api/products/{product_id}/stock-batches [get]
func (h *StockBatchHandler) ListByProduct(c *fiber.Ctx) error {
	limit, offset, ok := parsePage(c)
	if !ok {
		return nil
	}
	batches, err := h.uc.ListByProduct(c.Params("product_id"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batches)
}

// ListProducts godoc
// @Summary      Maestro de productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo por página (default 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.ProductDTO
// @Router       /api/products [get]
func (h *StockBatchHandler) ListProducts(c *fiber.Ctx) error {
	limit, offset, ok := parsePage(c)
	if !ok {
		return nil
	}
	products, err := h.uc.ListProducts(limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}
