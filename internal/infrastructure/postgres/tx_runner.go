package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/purchase"
	"github.com/jhoicas/almacen-api/internal/application/sales"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// Ensure TxRunner implements the three application runners.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ purchase.TxRunner = (*TxRunner)(nil)
var _ sales.TxRunner = (*TxRunner)(nil)

// maxTxAttempts acota los reintentos ante deadlock o fallo de serialización.
const maxTxAttempts = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Los deadlocks
// y fallos de serialización se reintentan un número acotado de veces; el callback
// vuelve a ejecutarse desde cero sobre una transacción nueva.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
) error) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewInventoryPositionRepository(tx))
	})
}

// RunPurchase inicia una transacción con repos de inventario y órdenes de compra
// (recepción de mercancía).
func (r *TxRunner) RunPurchase(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	poRepo repository.PurchaseOrderRepository,
) error) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewInventoryPositionRepository(tx), NewPurchaseOrderRepository(tx))
	})
}

// RunSales inicia una transacción con repos de inventario y órdenes de venta
// (despacho de mercancía).
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	soRepo repository.SalesOrderRepository,
) error) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewInventoryPositionRepository(tx), NewSalesOrderRepository(tx))
	})
}

func (r *TxRunner) withRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	return err
}

func (r *TxRunner) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
