package repository

import (
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// MovementTypeTotal agregado de movimientos por tipo (consumo del job de pronóstico).
type MovementTypeTotal struct {
	Type     string
	TotalQty int64
	Count    int64
}

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. Solo inserta y consulta: los movimientos nunca se actualizan
// ni se borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// GetByIdempotencyKey busca un movimiento por clave de idempotencia y tipo
	// de operación (las claves son independientes entre tipos). nil si no existe.
	GetByIdempotencyKey(key, movementType string) (*entity.StockMovement, error)
	ListByBatch(stockBatchID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// SummarizeByProduct agrupa cantidades por tipo de movimiento en un rango de fechas.
	SummarizeByProduct(productID string, from, to *time.Time) ([]MovementTypeTotal, error)
}
