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

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const purchaseOrderColumns = `id, po_no, supplier_id, status, total_amount, notes, placed_at, expected_arrival, created_by, created_at, updated_at`

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre PostgreSQL
// (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador de órdenes de compra. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *PurchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	if po.ID == "" {
		po.ID = uuid.New().String()
	}
	query := `
		INSERT INTO purchase_orders (` + purchaseOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		po.ID, po.PoNo, po.SupplierID, po.Status, po.TotalAmount,
		nullString(po.Notes), po.PlacedAt, po.ExpectedArrival, nullString(po.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create purchase order: %w", err)
	}
	for _, it := range po.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.PurchaseOrderID = po.ID
		itemQuery := `
			INSERT INTO purchase_order_items (id, purchase_order_id, product_id, stock_batch_id, qty_ordered, qty_received, unit_price, line_total, remark)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err := r.q.Exec(context.Background(), itemQuery,
			it.ID, it.PurchaseOrderID, it.ProductID, nullString(it.StockBatchID),
			it.QtyOrdered, it.QtyReceived, it.UnitPrice, it.LineTotal, nullString(it.Remark),
		)
		if err != nil {
			return fmt.Errorf("create purchase order item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con sus líneas. nil si no existe.
func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1`
	return r.getOne(query, id)
}

// GetForUpdate devuelve la orden bloqueando su fila (SELECT FOR UPDATE), para
// serializar recepciones concurrentes sobre la misma orden.
func (r *PurchaseOrderRepo) GetForUpdate(id string) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1 FOR UPDATE`
	return r.getOne(query, id)
}

func (r *PurchaseOrderRepo) getOne(query, id string) (*entity.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if po.Items, err = r.loadItems(po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

// List lista órdenes según el filtro y devuelve también el total sin paginar.
func (r *PurchaseOrderRepo) List(filter repository.OrderListFilter) ([]*entity.PurchaseOrder, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.PartyID != "" {
		where += fmt.Sprintf(" AND supplier_id = $%d", pos)
		args = append(args, filter.PartyID)
		pos++
	}
	if filter.OrderNo != "" {
		where += fmt.Sprintf(" AND po_no = $%d", pos)
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
	countQuery := "SELECT COUNT(*) FROM purchase_orders" + where
	if err := r.q.QueryRow(context.Background(), countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchase orders: %w", err)
	}

	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, po)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, po := range list {
		if po.Items, err = r.loadItems(po.ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// UpdateStatus cambia el estado de la orden.
func (r *PurchaseOrderRepo) UpdateStatus(id, status string) error {
	query := `UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`
	if status == entity.PoStatusOrdered {
		query = `UPDATE purchase_orders SET status = $2, placed_at = now(), updated_at = now() WHERE id = $1`
	}
	_, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	return nil
}

// UpdateTotals actualiza el total de la orden.
func (r *PurchaseOrderRepo) UpdateTotals(id string, total decimal.Decimal) error {
	query := `UPDATE purchase_orders SET total_amount = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, total)
	if err != nil {
		return fmt.Errorf("update purchase order totals: %w", err)
	}
	return nil
}

// UpdateItem actualiza cantidades, lote y precio de una línea.
func (r *PurchaseOrderRepo) UpdateItem(item *entity.PurchaseOrderItem) error {
	query := `
		UPDATE purchase_order_items
		SET product_id = $2, stock_batch_id = $3, qty_ordered = $4, unit_price = $5, line_total = $6, remark = $7
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.ProductID, nullString(item.StockBatchID),
		item.QtyOrdered, item.UnitPrice, item.LineTotal, nullString(item.Remark),
	)
	if err != nil {
		return fmt.Errorf("update purchase order item: %w", err)
	}
	return nil
}

// AddItemReceived incrementa la cantidad recibida de la línea en delta.
func (r *PurchaseOrderRepo) AddItemReceived(itemID string, delta int64) error {
	query := `UPDATE purchase_order_items SET qty_received = qty_received + $2 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, itemID, delta)
	if err != nil {
		return fmt.Errorf("add item received: %w", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) loadItems(poID string) ([]*entity.PurchaseOrderItem, error) {
	query := `
		SELECT id, purchase_order_id, product_id, stock_batch_id, qty_ordered, qty_received, unit_price, line_total, remark
		FROM purchase_order_items WHERE purchase_order_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, poID)
	if err != nil {
		return nil, fmt.Errorf("load purchase order items: %w", err)
	}
	defer rows.Close()
	var items []*entity.PurchaseOrderItem
	for rows.Next() {
		var it entity.PurchaseOrderItem
		var stockBatchID, remark *string
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &stockBatchID,
			&it.QtyOrdered, &it.QtyReceived, &it.UnitPrice, &it.LineTotal, &remark); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		it.StockBatchID = deref(stockBatchID)
		it.Remark = deref(remark)
		items = append(items, &it)
	}
	return items, rows.Err()
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	var notes, createdBy *string
	err := row.Scan(&po.ID, &po.PoNo, &po.SupplierID, &po.Status, &po.TotalAmount,
		&notes, &po.PlacedAt, &po.ExpectedArrival, &createdBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	po.Notes = deref(notes)
	po.CreatedBy = deref(createdBy)
	return &po, nil
}
