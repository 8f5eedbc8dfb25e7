package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/sales"
)

// SalesHandler maneja las peticiones HTTP del workflow de ventas (protegido).
type SalesHandler struct {
	uc *sales.UseCase
}

// NewSalesHandler construye el handler.
func NewSalesHandler(uc *sales.UseCase) *SalesHandler {
	return &SalesHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de venta en estado pending
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "customer_id y líneas"
// @Success      201   {object}  dto.SalesOrderDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSalesOrderRequest
	if !parseBody(c, &in) {
		return nil
	}
	items := make([]sales.CreateItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, sales.CreateItemInput{
			ProductID:    it.ProductID,
			StockBatchID: it.StockBatchID,
			Qty:          it.Qty,
			UnitPrice:    it.UnitPrice,
		})
	}
	so, err := h.uc.Create(c.Context(), sales.CreateInput{
		CustomerID: in.CustomerID,
		Items:      items,
	}, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSalesOrder(so))
}

// GetByID godoc
// @Summary      Orden de venta con sus líneas
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *SalesHandler) GetByID(c *fiber.Ctx) error {
	so, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSalesOrder(so))
}

// List godoc
// @Summary      Listado de órdenes de venta con filtros
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "pending|approved|processing|shipped|cancelled"
// @Param        party_id  query  string  false  "ID del cliente"
// @Param        order_no  query  string  false  "Número de orden"
// @Success      200  {object}  dto.SalesOrderListResponse
// @Router       /api/sales-orders [get]
func (h *SalesHandler) List(c *fiber.Ctx) error {
	filter, page, ok := parseOrderListFilter(c)
	if !ok {
		return nil
	}
	orders, total, err := h.uc.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.SalesOrderDTO, 0, len(orders))
	for _, so := range orders {
		out = append(out, dto.FromSalesOrder(so))
	}
	page.Total = total
	return c.JSON(dto.SalesOrderListResponse{Orders: out, Page: page})
}

// Submit godoc
// @Summary      Aprobar la orden (pending → approved)
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/submit [post]
func (h *SalesHandler) Submit(c *fiber.Ctx) error {
	so, err := h.uc.Submit(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSalesOrder(so))
}

// Fulfill godoc
// @Summary      Despacho de una tanda de líneas contra la orden
// @Description  Valida toda la tanda antes de mutar; el stock disponible se
// @Description  verifica bajo bloqueo de fila y una tanda inválida no deja efectos.
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la orden"
// @Param        body  body  dto.FulfillRequest  true  "líneas a despachar"
// @Success      200   {object}  dto.SalesOrderDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/fulfill [post]
func (h *SalesHandler) Fulfill(c *fiber.Ctx) error {
	var in dto.FulfillRequest
	if !parseBody(c, &in) {
		return nil
	}
	items := make([]sales.FulfillItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, sales.FulfillItemInput{
			ItemID:         it.ItemID,
			StockBatchID:   it.StockBatchID,
			LocationID:     it.LocationID,
			QtyToFulfill:   it.QtyToFulfill,
			IdempotencyKey: it.IdempotencyKey,
		})
	}
	so, err := h.uc.Fulfill(c.Context(), c.Params("id"), items, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSalesOrder(so))
}

// Cancel godoc
// @Summary      Cancelar la orden (shipped y cancelled son terminales)
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/cancel [post]
func (h *SalesHandler) Cancel(c *fiber.Ctx) error {
	so, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSalesOrder(so))
}

// Update godoc
// @Summary      Modificar una orden pendiente
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la orden"
// @Param        body  body  dto.UpdateSalesOrderRequest  true  "cambios"
// @Success      200   {object}  dto.SalesOrderDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [put]
func (h *SalesHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSalesOrderRequest
	if !parseBody(c, &in) {
		return nil
	}
	items := make([]sales.UpdateItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, sales.UpdateItemInput{
			ItemID:    it.ItemID,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
		})
	}
	so, err := h.uc.Update(c.Context(), c.Params("id"), sales.UpdateInput{
		CustomerID: in.CustomerID,
		Items:      items,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSalesOrder(so))
}
