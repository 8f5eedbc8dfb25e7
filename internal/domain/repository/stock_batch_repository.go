package repository

import "github.com/jhoicas/almacen-api/internal/domain/entity"

// StockBatchRepository define el puerto de persistencia para lotes.
type StockBatchRepository interface {
	Create(batch *entity.StockBatch) error
	GetByID(id string) (*entity.StockBatch, error)
	ListByProduct(productID string, limit, offset int) ([]*entity.StockBatch, error)
}
