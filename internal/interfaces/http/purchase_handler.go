package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/purchase"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// PurchaseHandler maneja las peticiones HTTP del workflow de compras (protegido).
type PurchaseHandler struct {
	uc   *purchase.UseCase
	docs *purchase.DocumentUseCase
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchase.UseCase, docs *purchase.DocumentUseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc, docs: docs}
}

// Create godoc
// @Summary      Crear orden de compra en borrador
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "supplier_id y líneas"
// @Success      201   {object}  dto.PurchaseOrderDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if !parseBody(c, &in) {
		return nil
	}
	items := make([]purchase.CreateItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, purchase.CreateItemInput{
			ProductID:  it.ProductID,
			QtyOrdered: it.QtyOrdered,
			UnitPrice:  it.UnitPrice,
			Remark:     it.Remark,
		})
	}
	po, err := h.uc.Create(c.Context(), purchase.CreateInput{
		SupplierID:      in.SupplierID,
		ExpectedArrival: in.ExpectedArrival,
		Notes:           in.Notes,
		Items:           items,
	}, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPurchaseOrder(po))
}

// GetByID godoc
// @Summary      Orden de compra con sus líneas
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseHandler) GetByID(c *fiber.Ctx) error {
	po, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// List godoc
// @Summary      Listado de órdenes de compra con filtros
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "draft|ordered|partial|received|cancelled"
// @Param        party_id  query  string  false  "ID del proveedor"
// @Param        order_no  query  string  false  "Número de orden"
// @Success      200  {object}  dto.PurchaseOrderListResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	filter, page, ok := parseOrderListFilter(c)
	if !ok {
		return nil
	}
	orders, total, err := h.uc.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PurchaseOrderDTO, 0, len(orders))
	for _, po := range orders {
		out = append(out, dto.FromPurchaseOrder(po))
	}
	page.Total = total
	return c.JSON(dto.PurchaseOrderListResponse{Orders: out, Page: page})
}

// Submit godoc
// @Summary      Enviar la orden al proveedor (draft → ordered)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/submit [post]
func (h *PurchaseHandler) Submit(c *fiber.Ctx) error {
	po, err := h.uc.Submit(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Receive godoc
// @Summary      Recepción de una tanda de líneas contra la orden
// @Description  Valida toda la tanda antes de mutar; movimientos, avance de
// @Description  líneas y estado derivado se confirman en una sola transacción.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la orden"
// @Param        body  body  dto.ReceiveRequest  true  "líneas a recibir"
// @Success      200   {object}  dto.PurchaseOrderDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if !parseBody(c, &in) {
		return nil
	}
	items := make([]purchase.ReceiveItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, purchase.ReceiveItemInput{
			ItemID:         it.ItemID,
			StockBatchID:   it.StockBatchID,
			LocationID:     it.LocationID,
			QtyToReceive:   it.QtyToReceive,
			IdempotencyKey: it.IdempotencyKey,
		})
	}
	po, err := h.uc.Receive(c.Context(), c.Params("id"), items, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Cancel godoc
// @Summary      Cancelar la orden (received y cancelled son terminales)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	po, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Update godoc
// @Summary      Modificar una orden en borrador
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la orden"
// @Param        body  body  dto.UpdatePurchaseOrderRequest  true  "cambios"
// @Success      200   {object}  dto.PurchaseOrderDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [put]
func (h *PurchaseHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePurchaseOrderRequest
	if !parseBody(c, &in) {
		return nil
	}
	items := make([]purchase.UpdateItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, purchase.UpdateItemInput{
			ItemID:     it.ItemID,
			QtyOrdered: it.QtyOrdered,
			UnitPrice:  it.UnitPrice,
			Remark:     it.Remark,
		})
	}
	po, err := h.uc.Update(c.Context(), c.Params("id"), purchase.UpdateInput{
		SupplierID:      in.SupplierID,
		ExpectedArrival: in.ExpectedArrival,
		Notes:           in.Notes,
		Items:           items,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// DownloadPDF godoc
// @Summary      Documento PDF de la orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/pdf [get]
func (h *PurchaseHandler) DownloadPDF(c *fiber.Ctx) error {
	data, filename, err := h.docs.GeneratePDF(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// parseOrderListFilter interpreta filtros y paginación comunes a los listados
// de órdenes. Devuelve false si ya escribió una respuesta de error.
func parseOrderListFilter(c *fiber.Ctx) (repository.OrderListFilter, dto.PageResponse, bool) {
	var req dto.OrderListRequest
	if err := c.QueryParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
		return repository.OrderListFilter{}, dto.PageResponse{}, false
	}
	req.DefaultPage()
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fechas en formato YYYY-MM-DD"})
		return repository.OrderListFilter{}, dto.PageResponse{}, false
	}
	filter := repository.OrderListFilter{
		Status:   req.Status,
		PartyID:  req.PartyID,
		OrderNo:  req.OrderNo,
		DateFrom: from,
		DateTo:   to,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	return filter, dto.PageResponse{Limit: req.Limit, Offset: req.Offset}, true
}
