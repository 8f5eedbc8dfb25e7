package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)

// StockBatchRepo implementación de StockBatchRepository sobre PostgreSQL (usable con pool o tx).
type StockBatchRepo struct {
	q Querier
}

// NewStockBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewStockBatchRepository(q Querier) *StockBatchRepo {
	return &StockBatchRepo{q: q}
}

// Create persiste un lote nuevo.
func (r *StockBatchRepo) Create(batch *entity.StockBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_batches (id, product_id, batch_no, mfg_date, exp_date, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.q.Exec(context.Background(), query,
		batch.ID, batch.ProductID, nullString(batch.BatchNo), batch.MfgDate, batch.ExpDate,
	)
	if err != nil {
		return fmt.Errorf("create stock batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID. nil si no existe.
func (r *StockBatchRepo) GetByID(id string) (*entity.StockBatch, error) {
	query := `
		SELECT id, product_id, batch_no, mfg_date, exp_date, created_at
		FROM stock_batches WHERE id = $1`
	var b entity.StockBatch
	var batchNo *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&b.ID, &b.ProductID, &batchNo, &b.MfgDate, &b.ExpDate, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock batch: %w", err)
	}
	b.BatchNo = deref(batchNo)
	return &b, nil
}

// ListByProduct lista los lotes de un producto.
func (r *StockBatchRepo) ListByProduct(productID string, limit, offset int) ([]*entity.StockBatch, error) {
	query := `
		SELECT id, product_id, batch_no, mfg_date, exp_date, created_at
		FROM stock_batches WHERE product_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list batches by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockBatch
	for rows.Next() {
		var b entity.StockBatch
		var batchNo *string
		if err := rows.Scan(&b.ID, &b.ProductID, &batchNo, &b.MfgDate, &b.ExpDate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		b.BatchNo = deref(batchNo)
		list = append(list, &b)
	}
	return list, rows.Err()
}
