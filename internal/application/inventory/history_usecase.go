package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// HistoryUseCase expone el historial de movimientos para reportes y para el
// job de pronóstico de demanda. Solo lecturas sobre el libro append-only:
// nunca bloquea ni es bloqueado por los escritores.
type HistoryUseCase struct {
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
}

// NewHistoryUseCase construye el caso de uso de historial.
func NewHistoryUseCase(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) *HistoryUseCase {
	return &HistoryUseCase{movRepo: movRepo, productRepo: productRepo}
}

// ListByProduct lista los movimientos de un producto en un rango de fechas.
func (uc *HistoryUseCase) ListByProduct(
	ctx context.Context,
	productID string,
	from, to *time.Time,
	limit, offset int,
) ([]*entity.StockMovement, error) {
	if err := uc.ensureProduct(productID); err != nil {
		return nil, err
	}
	return uc.movRepo.ListByProduct(productID, from, to, limit, offset)
}

// SummarizeByProduct devuelve los totales por tipo de movimiento de un producto
// en un rango de fechas (entrada del job de pronóstico).
func (uc *HistoryUseCase) SummarizeByProduct(
	ctx context.Context,
	productID string,
	from, to *time.Time,
) ([]repository.MovementTypeTotal, error) {
	if err := uc.ensureProduct(productID); err != nil {
		return nil, err
	}
	return uc.movRepo.SummarizeByProduct(productID, from, to)
}

func (uc *HistoryUseCase) ensureProduct(productID string) error {
	p, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if p == nil {
		return &domain.NotFoundError{Resource: "product", ID: productID}
	}
	return nil
}
