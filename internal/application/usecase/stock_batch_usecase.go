package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// StockBatchUseCase altas y consultas de lotes. Los lotes son inmutables:
// no hay update ni delete, solo los movimientos afectan sus posiciones.
type StockBatchUseCase struct {
	repo        repository.StockBatchRepository
	productRepo repository.ProductRepository
}

// NewStockBatchUseCase construye el caso de uso.
func NewStockBatchUseCase(repo repository.StockBatchRepository, productRepo repository.ProductRepository) *StockBatchUseCase {
	return &StockBatchUseCase{repo: repo, productRepo: productRepo}
}

// Create crea un lote para un producto existente.
func (uc *StockBatchUseCase) Create(in dto.CreateStockBatchRequest) (*dto.StockBatchDTO, error) {
	p, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Resource: "product", ID: in.ProductID}
	}
	batch := &entity.StockBatch{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		BatchNo:   in.BatchNo,
		MfgDate:   in.MfgDate,
		ExpDate:   in.ExpDate,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(batch); err != nil {
		return nil, err
	}
	out := dto.FromStockBatch(batch)
	return &out, nil
}

// GetByID obtiene un lote por ID, o NotFound.
func (uc *StockBatchUseCase) GetByID(id string) (*dto.StockBatchDTO, error) {
	batch, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, &domain.NotFoundError{Resource: "stock_batch", ID: id}
	}
	out := dto.FromStockBatch(batch)
	return &out, nil
}

// ListByProduct lista los lotes de un producto.
func (uc *StockBatchUseCase) ListByProduct(productID string, limit, offset int) ([]dto.StockBatchDTO, error) {
	batches, err := uc.repo.ListByProduct(productID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockBatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.FromStockBatch(b))
	}
	return out, nil
}

// ListProducts lista el maestro de productos (solo lectura).
func (uc *StockBatchUseCase) ListProducts(limit, offset int) ([]dto.ProductDTO, error) {
	products, err := uc.productRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, dto.FromProduct(p))
	}
	return out, nil
}
