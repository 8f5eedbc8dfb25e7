package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP del motor de inventario (protegido).
type InventoryHandler struct {
	ops     *inventory.OperationsUseCase
	history *inventory.HistoryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ops *inventory.OperationsUseCase, history *inventory.HistoryUseCase) *InventoryHandler {
	return &InventoryHandler{ops: ops, history: history}
}

// Receive godoc
// @Summary      Recepción de mercancía en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "stock_batch_id, location_id, quantity, idempotency_key opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	return h.movement(c, h.ops.Receive)
}

// Dispatch godoc
// @Summary      Despacho de mercancía desde una ubicación
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "stock_batch_id, location_id, quantity, idempotency_key opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/dispatches [post]
func (h *InventoryHandler) Dispatch(c *fiber.Ctx) error {
	return h.movement(c, h.ops.Dispatch)
}

// Reserve godoc
// @Summary      Reserva informativa sobre una posición
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "stock_batch_id, location_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	return h.movement(c, h.ops.Reserve)
}

// Release godoc
// @Summary      Liberación de una reserva (piso en cero)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "stock_batch_id, location_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/releases [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	return h.movement(c, h.ops.Release)
}

// movement factoriza el ciclo parse-validate-execute de las cuatro operaciones simples.
func (h *InventoryHandler) movement(
	c *fiber.Ctx,
	op func(ctx context.Context, in inventory.MovementInput) (*inventory.MovementResult, error),
) error {
	var in dto.MovementRequest
	if !parseBody(c, &in) {
		return nil
	}
	res, err := op(c.Context(), inventory.MovementInput{
		StockBatchID:   in.StockBatchID,
		LocationID:     in.LocationID,
		Quantity:       in.Quantity,
		Reference:      in.Reference,
		Note:           in.Note,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if res.Deduplicated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.MovementResponse{
		Movement:     dto.FromMovement(res.Movement),
		Deduplicated: res.Deduplicated,
	})
}

// Adjust godoc
// @Summary      Ajuste manual de una posición (delta con signo, referencia obligatoria)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "stock_batch_id, location_id, delta, reference"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if !parseBody(c, &in) {
		return nil
	}
	res, err := h.ops.Adjust(c.Context(), inventory.AdjustInput{
		StockBatchID:   in.StockBatchID,
		LocationID:     in.LocationID,
		Delta:          in.Delta,
		Reference:      in.Reference,
		Note:           in.Note,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if res.Deduplicated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.MovementResponse{
		Movement:     dto.FromMovement(res.Movement),
		Deduplicated: res.Deduplicated,
	})
}

// Transfer godoc
// @Summary      Traslado de cantidad entre dos ubicaciones del mismo lote
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "stock_batch_id, from_location_id, to_location_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if !parseBody(c, &in) {
		return nil
	}
	res, err := h.ops.Transfer(c.Context(), inventory.TransferInput{
		StockBatchID:   in.StockBatchID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Note:           in.Note,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := dto.TransferResponse{
		OutMovement:  dto.FromMovement(res.OutMovement),
		Deduplicated: res.Deduplicated,
	}
	if res.InMovement != nil {
		inMov := dto.FromMovement(res.InMovement)
		out.InMovement = &inMov
	}
	status := fiber.StatusCreated
	if res.Deduplicated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// GetPosition godoc
// @Summary      Posición actual de un lote en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        stock_batch_id  query  string  true  "ID del lote"
// @Param        location_id     query  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.PositionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/positions [get]
func (h *InventoryHandler) GetPosition(c *fiber.Ctx) error {
	stockBatchID := c.Query("stock_batch_id")
	locationID := c.Query("location_id")
	if stockBatchID == "" || locationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "stock_batch_id y location_id son requeridos"})
	}
	pos, err := h.ops.GetPosition(c.Context(), stockBatchID, locationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPosition(pos))
}

// ListMovements godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        start_date  query  string  false  "YYYY-MM-DD"
// @Param        end_date    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}   dto.MovementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var req dto.MovementHistoryRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	req.DefaultPage()
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fechas en formato YYYY-MM-DD"})
	}
	movements, err := h.history.ListByProduct(c.Context(), req.ProductID, from, to, req.Limit, req.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(fiber.Map{"movements": out, "page": dto.PageResponse{Limit: req.Limit, Offset: req.Offset}})
}

// SummarizeMovements godoc
// @Summary      Totales por tipo de movimiento de un producto (insumo de pronóstico)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        start_date  query  string  false  "YYYY-MM-DD"
// @Param        end_date    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}   dto.MovementTypeTotalDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/summary [get]
func (h *InventoryHandler) SummarizeMovements(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	from, to, err := parseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fechas en formato YYYY-MM-DD"})
	}
	totals, err := h.history.SummarizeByProduct(c.Context(), productID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"totals": dto.FromMovementTotals(totals)})
}

// parseDateRange interpreta fechas YYYY-MM-DD; la final es inclusiva (fin del día).
func parseDateRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, nil, err
		}
		eod := t.Add(24*time.Hour - time.Nanosecond)
		to = &eod
	}
	return from, to, nil
}
