package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de venta. shipped y cancelled son terminales.
const (
	SoStatusPending    = "pending"
	SoStatusApproved   = "approved"
	SoStatusProcessing = "processing"
	SoStatusShipped    = "shipped"
	SoStatusCancelled  = "cancelled"
)

// SalesOrder orden de venta de un cliente. El estado avanza con el despacho
// de sus líneas y nunca regresa (salvo cancelación explícita).
type SalesOrder struct {
	ID          string
	SoNo        string // legible, generado al crear (SO-YYYYMM-XXXXXX)
	CustomerID  string
	Status      string
	TotalAmount decimal.Decimal
	PlacedAt    *time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []*SalesOrderItem
}

// SalesOrderItem línea de orden de venta.
// Invariante: 0 <= QtyFulfilled <= Qty.
type SalesOrderItem struct {
	ID           string
	SalesOrderID string
	ProductID    string
	StockBatchID string // lote desde el que se despacha
	Qty          int64
	QtyFulfilled int64
	UnitPrice    *decimal.Decimal // nil = sin precio; aporta 0 al total
	LineTotal    *decimal.Decimal
}

// Remaining devuelve la cantidad pendiente de despachar.
func (it *SalesOrderItem) Remaining() int64 {
	return it.Qty - it.QtyFulfilled
}
