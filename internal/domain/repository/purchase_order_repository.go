package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// OrderListFilter filtros comunes para listados de órdenes.
type OrderListFilter struct {
	Status   string
	PartyID  string // proveedor o cliente según el tipo de orden
	OrderNo  string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// PurchaseOrderRepository define el puerto de persistencia de órdenes de compra.
type PurchaseOrderRepository interface {
	// Create persiste la orden con sus líneas.
	Create(po *entity.PurchaseOrder) error
	// GetByID devuelve la orden con sus líneas; nil si no existe.
	GetByID(id string) (*entity.PurchaseOrder, error)
	// GetForUpdate devuelve la orden bloqueando su fila, para serializar
	// recepciones concurrentes sobre la misma orden.
	GetForUpdate(id string) (*entity.PurchaseOrder, error)
	List(filter OrderListFilter) ([]*entity.PurchaseOrder, int, error)
	UpdateStatus(id, status string) error
	UpdateTotals(id string, total decimal.Decimal) error
	// UpdateItem actualiza cantidades/lote/precio de una línea.
	UpdateItem(item *entity.PurchaseOrderItem) error
	// AddItemReceived incrementa QtyReceived de la línea en delta.
	AddItemReceived(itemID string, delta int64) error
}
