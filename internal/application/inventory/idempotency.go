package inventory

import (
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// MovementResult resultado de una operación de inventario. Deduplicated indica
// que la clave de idempotencia ya había producido un movimiento y la operación
// no se volvió a ejecutar: el Movement devuelto es el original.
type MovementResult struct {
	Movement     *entity.StockMovement
	Deduplicated bool
}

// withIdempotency ejecuta op a lo sumo una vez por (key, movementType).
//
// Sin clave, ejecuta incondicionalmente (el llamador acepta riesgo at-least-once).
// Con clave, primero busca un movimiento ya registrado con esa clave y tipo; si
// existe, devuelve el resultado original sin ejecutar op. La clave se persiste en
// la fila del movimiento dentro de la misma transacción, y el índice único
// (idempotency_key, type) del almacenamiento resuelve la carrera entre dos
// peticiones concurrentes con la misma clave no vista: solo una logra el commit,
// la otra recibe violación de unicidad y el llamador relee el movimiento ya
// confirmado.
//
// Las claves son independientes entre tipos de movimiento: una clave de recepción
// y una de despacho no colisionan aunque tengan el mismo valor.
func withIdempotency(
	movRepo repository.StockMovementRepository,
	key, movementType string,
	op func() (*entity.StockMovement, error),
) (*MovementResult, error) {
	if key == "" {
		mov, err := op()
		if err != nil {
			return nil, err
		}
		return &MovementResult{Movement: mov}, nil
	}

	existing, err := movRepo.GetByIdempotencyKey(key, movementType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &MovementResult{Movement: existing, Deduplicated: true}, nil
	}

	mov, err := op()
	if err != nil {
		return nil, err
	}
	return &MovementResult{Movement: mov}, nil
}
