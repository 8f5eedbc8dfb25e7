package dto

import (
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
}

// WarehouseDTO bodega en respuestas.
type WarehouseDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateLocationRequest body para POST /api/warehouses/:id/locations.
type CreateLocationRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name,omitempty"`
}

// LocationDTO ubicación en respuestas.
type LocationDTO struct {
	ID          string    `json:"id"`
	WarehouseID string    `json:"warehouse_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateStockBatchRequest body para POST /api/stock-batches.
type CreateStockBatchRequest struct {
	ProductID string     `json:"product_id" validate:"required"`
	BatchNo   string     `json:"batch_no,omitempty"`
	MfgDate   *time.Time `json:"mfg_date,omitempty"`
	ExpDate   *time.Time `json:"exp_date,omitempty"`
}

// StockBatchDTO lote en respuestas.
type StockBatchDTO struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	BatchNo   string     `json:"batch_no,omitempty"`
	MfgDate   *time.Time `json:"mfg_date,omitempty"`
	ExpDate   *time.Time `json:"exp_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ProductDTO producto en respuestas (el maestro es de solo lectura aquí).
type ProductDTO struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromWarehouse(w *entity.Warehouse) WarehouseDTO {
	return WarehouseDTO{ID: w.ID, Name: w.Name, Address: w.Address, CreatedAt: w.CreatedAt}
}

func FromLocation(l *entity.Location) LocationDTO {
	return LocationDTO{ID: l.ID, WarehouseID: l.WarehouseID, Code: l.Code, Name: l.Name, CreatedAt: l.CreatedAt}
}

func FromStockBatch(b *entity.StockBatch) StockBatchDTO {
	return StockBatchDTO{ID: b.ID, ProductID: b.ProductID, BatchNo: b.BatchNo, MfgDate: b.MfgDate, ExpDate: b.ExpDate, CreatedAt: b.CreatedAt}
}

func FromProduct(p *entity.Product) ProductDTO {
	return ProductDTO{ID: p.ID, SKU: p.SKU, Name: p.Name, Unit: p.Unit, CreatedAt: p.CreatedAt}
}
