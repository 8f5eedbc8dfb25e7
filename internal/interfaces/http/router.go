package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/purchase"
	"github.com/jhoicas/almacen-api/internal/application/sales"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InventoryOps *inventory.OperationsUseCase
	InventoryHis *inventory.HistoryUseCase
	PurchaseUC   *purchase.UseCase
	PurchaseDocs *purchase.DocumentUseCase
	SalesUC      *sales.UseCase
	WarehouseUC  *usecase.WarehouseUseCase
	StockBatchUC *usecase.StockBatchUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Warehouses y locations (protegido)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Post("/:id/locations", warehouseHandler.CreateLocation)
	warehouses.Get("/:id/locations", warehouseHandler.ListLocations)

	// Stock batches y productos (protegido)
	batchHandler := NewStockBatchHandler(deps.StockBatchUC)
	batches := protected.Group("/stock-batches")
	batches.Post("/", batchHandler.Create)
	batches.Get("/:id", batchHandler.GetByID)
	products := protected.Group("/products")
	products.Get("/", batchHandler.ListProducts)
	products.Get("/:product_id/stock-batches", batchHandler.ListByProduct)

	// Inventory (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryOps, deps.InventoryHis)
	invGroup.Post("/receipts", inventoryHandler.Receive)
	invGroup.Post("/dispatches", inventoryHandler.Dispatch)
	invGroup.Post("/reservations", inventoryHandler.Reserve)
	invGroup.Post("/releases", inventoryHandler.Release)
	invGroup.Post("/transfers", inventoryHandler.Transfer)
	invGroup.Post("/adjustments", RequireRole("admin", "supervisor"), inventoryHandler.Adjust)
	invGroup.Get("/positions", inventoryHandler.GetPosition)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/movements/summary", inventoryHandler.SummarizeMovements)

	// Purchase orders (protegido)
	pos := protected.Group("/purchase-orders")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC, deps.PurchaseDocs)
	pos.Post("/", purchaseHandler.Create)
	pos.Get("/", purchaseHandler.List)
	pos.Get("/:id", purchaseHandler.GetByID)
	pos.Put("/:id", purchaseHandler.Update)
	pos.Post("/:id/submit", purchaseHandler.Submit)
	pos.Post("/:id/receive", purchaseHandler.Receive)
	pos.Post("/:id/cancel", purchaseHandler.Cancel)
	pos.Get("/:id/pdf", purchaseHandler.DownloadPDF)

	// Sales orders (protegido)
	sos := protected.Group("/sales-orders")
	salesHandler := NewSalesHandler(deps.SalesUC)
	sos.Post("/", salesHandler.Create)
	sos.Get("/", salesHandler.List)
	sos.Get("/:id", salesHandler.GetByID)
	sos.Put("/:id", salesHandler.Update)
	sos.Post("/:id/submit", salesHandler.Submit)
	sos.Post("/:id/fulfill", salesHandler.Fulfill)
	sos.Post("/:id/cancel", salesHandler.Cancel)
}
