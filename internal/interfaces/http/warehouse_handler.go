package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
)

// WarehouseHandler maneja bodegas y sus ubicaciones (protegido).
type WarehouseHandler struct {
	uc *usecase.WarehouseUseCase
}

// NewWarehouseHandler construye el handler.
func NewWarehouseHandler(uc *usecase.WarehouseUseCase) *WarehouseHandler {
	return &WarehouseHandler{uc: uc}
}

// Create godoc
// @Summary      Crear bodega
// @Tags         warehouses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWarehouseRequest  true  "datos de la bodega"
// @Success      201   {object}  dto.WarehouseDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/warehouses [post]
func (h *WarehouseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWarehouseRequest
	if !parseBody(c, &in) {
		return nil
	}
	wh, err := h.uc.Create(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(wh)
}

// GetByID godoc
// @Summary      Bodega por ID
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la bodega"
// @Success      200  {object}  dto.WarehouseDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id} [get]
func (h *WarehouseHandler) GetByID(c *fiber.Ctx) error {
	wh, err := h.uc.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(wh)
}

// List godoc
// @Summary      Listado de bodegas
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo por página (default 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.WarehouseDTO
// @Router       /api/warehouses [get]
func (h *WarehouseHandler) List(c *fiber.Ctx) error {
	limit, offset, ok := parsePage(c)
	if !ok {
		return nil
	}
	whs, err := h.uc.List(limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(whs)
}

// CreateLocation godoc
// @Summary      Crear ubicación dentro de una bodega
// @Tags         warehouses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la bodega"
// @Param        body  body  dto.CreateLocationRequest  true  "datos de la ubicación"
// @Success      201   {object}  dto.LocationDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/locations [post]
func (h *WarehouseHandler) CreateLocation(c *fiber.Ctx) error {
	var in dto.CreateLocationRequest
	if !parseBody(c, &in) {
		return nil
	}
	loc, err := h.uc.CreateLocation(c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loc)
}

// ListLocations godoc
// @Summary      Ubicaciones de una bodega
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path   string  true   "ID de la bodega"
// @Param        limit   query  int  false  "máximo por página (default 20)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.LocationDTO
// @Router       /api/warehouses/{id}/locations [get]
func (h *WarehouseHandler) ListLocations(c *fiber.Ctx) error {
	limit, offset, ok := parsePage(c)
	if !ok {
		return nil
	}
	locs, err := h.uc.ListLocations(c.Params("id"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(locs)
}

// parsePage interpreta limit/offset con defaults. Devuelve false si ya
// escribió una respuesta de error.
func parsePage(c *fiber.Ctx) (int, int, bool) {
	var req dto.PageRequest
	if err := c.QueryParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
		return 0, 0, false
	}
	req.DefaultPage()
	return req.Limit, req.Offset, true
}
