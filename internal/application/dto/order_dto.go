package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// ── Órdenes de compra ─────────────────────────────────────────────────────────

// CreatePurchaseOrderItemRequest línea para crear una orden de compra.
type CreatePurchaseOrderItemRequest struct {
	ProductID  string           `json:"product_id" validate:"required"`
	QtyOrdered int64            `json:"qty_ordered" validate:"required,gt=0"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Remark     string           `json:"remark,omitempty"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierID      string                           `json:"supplier_id" validate:"required"`
	ExpectedArrival *time.Time                       `json:"expected_arrival,omitempty"`
	Notes           string                           `json:"notes,omitempty"`
	Items           []CreatePurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ReceiveItemRequest línea de una recepción.
type ReceiveItemRequest struct {
	ItemID         string `json:"item_id" validate:"required"`
	StockBatchID   string `json:"stock_batch_id" validate:"required"`
	LocationID     string `json:"location_id" validate:"required"`
	QtyToReceive   int64  `json:"qty_to_receive" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ReceiveRequest body para POST /api/purchase-orders/:id/receive.
type ReceiveRequest struct {
	Items []ReceiveItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdatePurchaseOrderItemRequest cambios de una línea de un borrador.
type UpdatePurchaseOrderItemRequest struct {
	ItemID     string           `json:"item_id" validate:"required"`
	QtyOrdered *int64           `json:"qty_ordered,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Remark     *string          `json:"remark,omitempty"`
}

// UpdatePurchaseOrderRequest body para PUT /api/purchase-orders/:id.
type UpdatePurchaseOrderRequest struct {
	SupplierID      *string                          `json:"supplier_id,omitempty"`
	ExpectedArrival *time.Time                       `json:"expected_arrival,omitempty"`
	Notes           *string                          `json:"notes,omitempty"`
	Items           []UpdatePurchaseOrderItemRequest `json:"items,omitempty" validate:"dive"`
}

// PurchaseOrderItemDTO línea de orden de compra en respuestas.
type PurchaseOrderItemDTO struct {
	ID           string           `json:"id"`
	ProductID    string           `json:"product_id"`
	StockBatchID string           `json:"stock_batch_id,omitempty"`
	QtyOrdered   int64            `json:"qty_ordered"`
	QtyReceived  int64            `json:"qty_received"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal    *decimal.Decimal `json:"line_total,omitempty"`
	Remark       string           `json:"remark,omitempty"`
}

// PurchaseOrderDTO orden de compra en respuestas.
type PurchaseOrderDTO struct {
	ID              string                 `json:"id"`
	PoNo            string                 `json:"po_no"`
	SupplierID      string                 `json:"supplier_id"`
	Status          string                 `json:"status"`
	TotalAmount     decimal.Decimal        `json:"total_amount"`
	Notes           string                 `json:"notes,omitempty"`
	PlacedAt        *time.Time             `json:"placed_at,omitempty"`
	ExpectedArrival *time.Time             `json:"expected_arrival,omitempty"`
	CreatedBy       string                 `json:"created_by,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Items           []PurchaseOrderItemDTO `json:"items"`
}

// PurchaseOrderListResponse respuesta de GET /api/purchase-orders.
type PurchaseOrderListResponse struct {
	Orders []PurchaseOrderDTO `json:"orders"`
	Page   PageResponse       `json:"page"`
}

// FromPurchaseOrder mapea la entidad al DTO.
func FromPurchaseOrder(po *entity.PurchaseOrder) PurchaseOrderDTO {
	items := make([]PurchaseOrderItemDTO, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, PurchaseOrderItemDTO{
			ID:           it.ID,
			ProductID:    it.ProductID,
			StockBatchID: it.StockBatchID,
			QtyOrdered:   it.QtyOrdered,
			QtyReceived:  it.QtyReceived,
			UnitPrice:    it.UnitPrice,
			LineTotal:    it.LineTotal,
			Remark:       it.Remark,
		})
	}
	return PurchaseOrderDTO{
		ID:              po.ID,
		PoNo:            po.PoNo,
		SupplierID:      po.SupplierID,
		Status:          po.Status,
		TotalAmount:     po.TotalAmount,
		Notes:           po.Notes,
		PlacedAt:        po.PlacedAt,
		ExpectedArrival: po.ExpectedArrival,
		CreatedBy:       po.CreatedBy,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
		Items:           items,
	}
}

// ── Órdenes de venta ──────────────────────────────────────────────────────────

// CreateSalesOrderItemRequest línea para crear una orden de venta.
type CreateSalesOrderItemRequest struct {
	ProductID    string           `json:"product_id" validate:"required"`
	StockBatchID string           `json:"stock_batch_id,omitempty"`
	Qty          int64            `json:"qty" validate:"required,gt=0"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateSalesOrderRequest body para POST /api/sales-orders.
type CreateSalesOrderRequest struct {
	CustomerID string                        `json:"customer_id" validate:"required"`
	Items      []CreateSalesOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// FulfillItemRequest línea de un despacho.
type FulfillItemRequest struct {
	ItemID         string `json:"item_id" validate:"required"`
	StockBatchID   string `json:"stock_batch_id" validate:"required"`
	LocationID     string `json:"location_id" validate:"required"`
	QtyToFulfill   int64  `json:"qty_to_fulfill" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// FulfillRequest body para POST /api/sales-orders/:id/fulfill.
type FulfillRequest struct {
	Items []FulfillItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateSalesOrderItemRequest cambios de una línea de una orden pendiente.
type UpdateSalesOrderItemRequest struct {
	ItemID    string           `json:"item_id" validate:"required"`
	Qty       *int64           `json:"qty,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UpdateSalesOrderRequest body para PUT /api/sales-orders/:id.
type UpdateSalesOrderRequest struct {
	CustomerID *string                       `json:"customer_id,omitempty"`
	Items      []UpdateSalesOrderItemRequest `json:"items,omitempty" validate:"dive"`
}

// SalesOrderItemDTO línea de orden de venta en respuestas.
type SalesOrderItemDTO struct {
	ID           string           `json:"id"`
	ProductID    string           `json:"product_id"`
	StockBatchID string           `json:"stock_batch_id,omitempty"`
	Qty          int64            `json:"qty"`
	QtyFulfilled int64            `json:"qty_fulfilled"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal    *decimal.Decimal `json:"line_total,omitempty"`
}

// SalesOrderDTO orden de venta en respuestas.
type SalesOrderDTO struct {
	ID          string              `json:"id"`
	SoNo        string              `json:"so_no"`
	CustomerID  string              `json:"customer_id"`
	Status      string              `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	PlacedAt    *time.Time          `json:"placed_at,omitempty"`
	CreatedBy   string              `json:"created_by,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []SalesOrderItemDTO `json:"items"`
}

// SalesOrderListResponse respuesta de GET /api/sales-orders.
type SalesOrderListResponse struct {
	Orders []SalesOrderDTO `json:"orders"`
	Page   PageResponse    `json:"page"`
}

// FromSalesOrder mapea la entidad al DTO.
func FromSalesOrder(so *entity.SalesOrder) SalesOrderDTO {
	items := make([]SalesOrderItemDTO, 0, len(so.Items))
	for _, it := range so.Items {
		items = append(items, SalesOrderItemDTO{
			ID:           it.ID,
			ProductID:    it.ProductID,
			StockBatchID: it.StockBatchID,
			Qty:          it.Qty,
			QtyFulfilled: it.QtyFulfilled,
			UnitPrice:    it.UnitPrice,
			LineTotal:    it.LineTotal,
		})
	}
	return SalesOrderDTO{
		ID:          so.ID,
		SoNo:        so.SoNo,
		CustomerID:  so.CustomerID,
		Status:      so.Status,
		TotalAmount: so.TotalAmount,
		PlacedAt:    so.PlacedAt,
		CreatedBy:   so.CreatedBy,
		CreatedAt:   so.CreatedAt,
		UpdatedAt:   so.UpdatedAt,
		Items:       items,
	}
}

// OrderListRequest query para listados de órdenes.
type OrderListRequest struct {
	Status    string `query:"status"`
	PartyID   string `query:"party_id"` // proveedor o cliente según el recurso
	OrderNo   string `query:"order_no"`
	StartDate string `query:"start_date"` // YYYY-MM-DD
	EndDate   string `query:"end_date"`   // YYYY-MM-DD
	PageRequest
}
