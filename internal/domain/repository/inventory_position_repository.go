package repository

import "github.com/jhoicas/almacen-api/internal/domain/entity"

// InventoryPositionRepository define el puerto de persistencia para posiciones
// de inventario. Todo escritor pasa por aquí dentro de la transacción del motor;
// los workflows nunca escriben posiciones directamente.
type InventoryPositionRepository interface {
	// Get devuelve la posición actual; si no existe, una posición en cero (nunca error para ids válidos).
	Get(stockBatchID, locationID string) (*entity.InventoryPosition, error)
	// GetForUpdate devuelve la posición bloqueando la fila (SELECT FOR UPDATE)
	// para serializar read-modify-write concurrentes sobre la misma posición.
	GetForUpdate(stockBatchID, locationID string) (*entity.InventoryPosition, error)
	// Upsert inserta o actualiza las cantidades de la posición.
	Upsert(pos *entity.InventoryPosition) error
	// ListByLocation / ListByBatch consultas de solo lectura para la API.
	ListByLocation(locationID string, limit, offset int) ([]*entity.InventoryPosition, error)
	ListByBatch(stockBatchID string, limit, offset int) ([]*entity.InventoryPosition, error)
}
