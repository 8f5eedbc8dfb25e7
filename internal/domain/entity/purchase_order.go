package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra. received y cancelled son terminales.
const (
	PoStatusDraft     = "draft"
	PoStatusOrdered   = "ordered"
	PoStatusPartial   = "partial"
	PoStatusReceived  = "received"
	PoStatusCancelled = "cancelled"
)

// PurchaseOrder orden de compra a un proveedor. El estado es derivado del
// avance de recepción de sus líneas; el cliente solo dispone de submit/cancel.
type PurchaseOrder struct {
	ID              string
	PoNo            string // legible, generado al crear (PO-YYYYMM-XXXXXX)
	SupplierID      string
	Status          string
	TotalAmount     decimal.Decimal
	Notes           string
	PlacedAt        *time.Time
	ExpectedArrival *time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []*PurchaseOrderItem
}

// PurchaseOrderItem línea de orden de compra.
// Invariante: 0 <= QtyReceived <= QtyOrdered.
type PurchaseOrderItem struct {
	ID              string
	PurchaseOrderID string
	ProductID       string
	StockBatchID    string // vacío hasta asociarse a un lote en la recepción
	QtyOrdered      int64
	QtyReceived     int64
	UnitPrice       *decimal.Decimal // nil = sin precio; aporta 0 al total
	LineTotal       *decimal.Decimal
	Remark          string
}

// Remaining devuelve la cantidad pendiente de recibir.
func (it *PurchaseOrderItem) Remaining() int64 {
	return it.QtyOrdered - it.QtyReceived
}
