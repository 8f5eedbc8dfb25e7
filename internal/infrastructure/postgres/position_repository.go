package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.InventoryPositionRepository = (*InventoryPositionRepo)(nil)

// InventoryPositionRepo implementación de InventoryPositionRepository sobre PostgreSQL
// (usable con pool o tx).
type InventoryPositionRepo struct {
	q Querier
}

// NewInventoryPositionRepository construye el adaptador de posiciones. Pasar pool o tx (Querier).
func NewInventoryPositionRepository(q Querier) *InventoryPositionRepo {
	return &InventoryPositionRepo{q: q}
}

// Get obtiene la posición actual de un lote en una ubicación.
// Si no existe fila, devuelve una posición en cero (no es error).
func (r *InventoryPositionRepo) Get(stockBatchID, locationID string) (*entity.InventoryPosition, error) {
	query := `
		SELECT stock_batch_id, location_id, available_qty, reserved_qty, updated_at
		FROM inventory_positions WHERE stock_batch_id = $1 AND location_id = $2`
	var p entity.InventoryPosition
	err := r.q.QueryRow(context.Background(), query, stockBatchID, locationID).Scan(
		&p.StockBatchID, &p.LocationID, &p.AvailableQty, &p.ReservedQty, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryPosition{StockBatchID: stockBatchID, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &p, nil
}

// GetForUpdate obtiene la posición y bloquea la fila (SELECT FOR UPDATE) para
// serializar read-modify-write concurrentes. Si la fila no existe se crea en
// cero primero: sin fila no hay nada que bloquear y dos primeros movimientos
// sobre el mismo par podrían pisarse.
func (r *InventoryPositionRepo) GetForUpdate(stockBatchID, locationID string) (*entity.InventoryPosition, error) {
	seed := `
		INSERT INTO inventory_positions (stock_batch_id, location_id, available_qty, reserved_qty, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (stock_batch_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), seed, stockBatchID, locationID); err != nil {
		return nil, fmt.Errorf("seed position: %w", err)
	}
	query := `
		SELECT stock_batch_id, location_id, available_qty, reserved_qty, updated_at
		FROM inventory_positions WHERE stock_batch_id = $1 AND location_id = $2
		FOR UPDATE`
	var p entity.InventoryPosition
	err := r.q.QueryRow(context.Background(), query, stockBatchID, locationID).Scan(
		&p.StockBatchID, &p.LocationID, &p.AvailableQty, &p.ReservedQty, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.InventoryPosition{StockBatchID: stockBatchID, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("get position for update: %w", err)
	}
	return &p, nil
}

// Upsert inserta o actualiza las cantidades de la posición (por lote y ubicación).
func (r *InventoryPositionRepo) Upsert(pos *entity.InventoryPosition) error {
	query := `
		INSERT INTO inventory_positions (stock_batch_id, location_id, available_qty, reserved_qty, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (stock_batch_id, location_id)
		DO UPDATE SET available_qty = EXCLUDED.available_qty, reserved_qty = EXCLUDED.reserved_qty, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, pos.StockBatchID, pos.LocationID, pos.AvailableQty, pos.ReservedQty)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// ListByLocation lista las posiciones de una ubicación.
func (r *InventoryPositionRepo) ListByLocation(locationID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	query := `
		SELECT stock_batch_id, location_id, available_qty, reserved_qty, updated_at
		FROM inventory_positions WHERE location_id = $1
		ORDER BY stock_batch_id LIMIT $2 OFFSET $3`
	return r.list(query, locationID, limit, offset)
}

// ListByBatch lista las posiciones de un lote en todas las ubicaciones.
func (r *InventoryPositionRepo) ListByBatch(stockBatchID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	query := `
		SELECT stock_batch_id, location_id, available_qty, reserved_qty, updated_at
		FROM inventory_positions WHERE stock_batch_id = $1
		ORDER BY location_id LIMIT $2 OFFSET $3`
	return r.list(query, stockBatchID, limit, offset)
}

func (r *InventoryPositionRepo) list(query string, id string, limit, offset int) ([]*entity.InventoryPosition, error) {
	rows, err := r.q.Query(context.Background(), query, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryPosition
	for rows.Next() {
		var p entity.InventoryPosition
		if err := rows.Scan(&p.StockBatchID, &p.LocationID, &p.AvailableQty, &p.ReservedQty, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
