package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// SalesOrderRepository define el puerto de persistencia de órdenes de venta.
type SalesOrderRepository interface {
	Create(so *entity.SalesOrder) error
	GetByID(id string) (*entity.SalesOrder, error)
	// GetForUpdate devuelve la orden bloqueando su fila, para serializar
	// despachos concurrentes sobre la misma orden.
	GetForUpdate(id string) (*entity.SalesOrder, error)
	List(filter OrderListFilter) ([]*entity.SalesOrder, int, error)
	UpdateStatus(id, status string) error
	UpdateTotals(id string, total decimal.Decimal) error
	UpdateItem(item *entity.SalesOrderItem) error
	// AddItemFulfilled incrementa QtyFulfilled de la línea en delta.
	AddItemFulfilled(itemID string, delta int64) error
}
