package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

const salesOrderColumns = `id, so_no, customer_id, status, total_amount, placed_at, created_by, created_at, updated_at`

// SalesOrderRepo implementación de SalesOrderRepository sobre PostgreSQL
// (usable con pool o tx).
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador de órdenes de venta. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *SalesOrderRepo) Create(so *entity.SalesOrder) error {
	if so.ID == "" {
		so.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sales_orders (` + salesOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		so.ID, so.SoNo, so.CustomerID, so.Status, so.TotalAmount, so.PlacedAt, nullString(so.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create sales order: %w", err)
	}
	for _, it := range so.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.SalesOrderID = so.ID
		itemQuery := `
			INSERT INTO sales_order_items (id, sales_order_id, product_id, stock_batch_id, qty, qty_fulfilled, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := r.q.Exec(context.Background(), itemQuery,
			it.ID, it.SalesOrderID, it.ProductID, nullString(it.StockBatchID),
			it.Qty, it.QtyFulfilled, it.UnitPrice, it.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("create sales order item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con sus líneas. nil si no existe.
func (r *SalesOrderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE id = $1`
	return r.getOne(query, id)
}

// GetForUpdate devuelve la orden bloqueando su fila (SELECT FOR UPDATE), para
// serializar despachos concurrentes sobre la misma orden.
func (r *SalesOrderRepo) GetForUpdate(id string) (*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE id = $1 FOR UPDATE`
	return r.getOne(query, id)
}

func (r *SalesOrderRepo) getOne(query, id string) (*entity.SalesOrder, error) {
	so, err := scanSalesOrder(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if so.Items, err = r.loadItems(so.ID); err != nil {
		return nil, err
	}
	return so, nil
}

// List lista órdenes según el filtro y devuelve también el total sin paginar.
func (r *SalesOrderRepo) List(filter repository.OrderListFilter) ([]*entity.SalesOrder, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.PartyID != "" {
		where += fmt.Sprintf(" AND customer_id = $%d", pos)
		args = append(args, filter.PartyID)
		pos++
	}
	if filter.OrderNo != "" {
		where += fmt.Sprintf(" AND so_no = $%d", pos)
		args = append(args, filter.OrderNo)
		pos++
	}
	if filter.DateFrom != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.DateFrom)
		pos++
	}
	if filter.DateTo != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.DateTo)
		pos++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM sales_orders" + where
	if err := r.q.QueryRow(context.Background(), countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales orders: %w", err)
	}

	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrder
	for rows.Next() {
		so, err := scanSalesOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sales order: %w", err)
		}
		list = append(list, so)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, so := range list {
		if so.Items, err = r.loadItems(so.ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// UpdateStatus cambia el estado de la orden.
func (r *SalesOrderRepo) UpdateStatus(id, status string) error {
	query := `UPDATE sales_orders SET status = $2, updated_at = now() WHERE id = $1`
	if status == entity.SoStatusApproved {
		query = `UPDATE sales_orders SET status = $2, placed_at = now(), updated_at = now() WHERE id = $1`
	}
	_, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update sales order status: %w", err)
	}
	return nil
}

// UpdateTotals actualiza el total de la orden.
func (r *SalesOrderRepo) UpdateTotals(id string, total decimal.Decimal) error {
	query := `UPDATE sales_orders SET total_amount = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, total)
	if err != nil {
		return fmt.Errorf("update sales order totals: %w", err)
	}
	return nil
}

// UpdateItem actualiza cantidades, lote y precio de una línea.
func (r *SalesOrderRepo) UpdateItem(item *entity.SalesOrderItem) error {
	query := `
		UPDATE sales_order_items
		SET product_id = $2, stock_batch_id = $3, qty = $4, unit_price = $5, line_total = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.ProductID, nullString(item.StockBatchID),
		item.Qty, item.UnitPrice, item.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("update sales order item: %w", err)
	}
	return nil
}

// AddItemFulfilled incrementa la cantidad despachada de la línea en delta.
func (r *SalesOrderRepo) AddItemFulfilled(itemID string, delta int64) error {
	query := `UPDATE sales_order_items SET qty_fulfilled = qty_fulfilled + $2 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, itemID, delta)
	if err != nil {
		return fmt.Errorf("add item fulfilled: %w", err)
	}
	return nil
}

func (r *SalesOrderRepo) loadItems(soID string) ([]*entity.SalesOrderItem, error) {
	query := `
		SELECT id, sales_order_id, product_id, stock_batch_id, qty, qty_fulfilled, unit_price, line_total
		FROM sales_order_items WHERE sales_order_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, soID)
	if err != nil {
		return nil, fmt.Errorf("load sales order items: %w", err)
	}
	defer rows.Close()
	var items []*entity.SalesOrderItem
	for rows.Next() {
		var it entity.SalesOrderItem
		var stockBatchID *string
		if err := rows.Scan(&it.ID, &it.SalesOrderID, &it.ProductID, &stockBatchID,
			&it.Qty, &it.QtyFulfilled, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan sales order item: %w", err)
		}
		it.StockBatchID = deref(stockBatchID)
		items = append(items, &it)
	}
	return items, rows.Err()
}

func scanSalesOrder(row pgx.Row) (*entity.SalesOrder, error) {
	var so entity.SalesOrder
	var createdBy *string
	err := row.Scan(&so.ID, &so.SoNo, &so.CustomerID, &so.Status, &so.TotalAmount,
		&so.PlacedAt, &createdBy, &so.CreatedAt, &so.UpdatedAt)
	if err != nil {
		return nil, err
	}
	so.CreatedBy = deref(createdBy)
	return &so, nil
}
