package inventory

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza que posición y movimiento se apliquen como una sola
// unidad atómica: nunca es observable uno sin el otro.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		posRepo repository.InventoryPositionRepository,
	) error) error
}
