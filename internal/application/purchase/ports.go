package purchase

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta el workflow de recepción dentro de una transacción: la tanda
// completa de líneas, los movimientos de inventario y el estado derivado de la
// orden se confirman o descartan juntos.
type TxRunner interface {
	RunPurchase(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		posRepo repository.InventoryPositionRepository,
		poRepo repository.PurchaseOrderRepository,
	) error) error
}
