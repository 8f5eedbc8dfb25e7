package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, stock_batch_id, from_location_id, to_location_id, type, quantity, reference, note, idempotency_key, created_by, created_at`

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// El libro de movimientos es solo-inserción: no hay Update ni Delete.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento. Si la clave de idempotencia ya existe para el
// mismo tipo de operación (índice único parcial), devuelve domain.ErrDuplicate:
// el llamador recarga el movimiento original y responde con él.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.StockBatchID,
		nullString(movement.FromLocationID), nullString(movement.ToLocationID),
		movement.Type, movement.Quantity,
		nullString(movement.Reference), nullString(movement.Note),
		nullString(movement.IdempotencyKey), nullString(movement.CreatedBy),
		movement.CreatedAt,
	)
	if err != nil {
		if movement.IdempotencyKey != "" && isUniqueViolation(err) {
			return fmt.Errorf("movement %s/%s: %w", movement.Type, movement.IdempotencyKey, domain.ErrDuplicate)
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID. nil si no existe.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := r.scanOne(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetByIdempotencyKey busca un movimiento por clave y tipo de operación.
// Las claves son independientes entre tipos. nil si no existe.
func (r *StockMovementRepo) GetByIdempotencyKey(key, movementType string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE idempotency_key = $1 AND type = $2`
	m, err := r.scanOne(r.q.QueryRow(context.Background(), query, key, movementType))
	if err != nil {
		return nil, fmt.Errorf("get movement by idempotency key: %w", err)
	}
	return m, nil
}

// ListByBatch lista movimientos de un lote en un rango de fechas.
func (r *StockMovementRepo) ListByBatch(stockBatchID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE stock_batch_id = $1`
	return r.list(query, "created_at", stockBatchID, from, to, limit, offset)
}

// ListByProduct lista movimientos de todos los lotes de un producto en un rango de fechas.
func (r *StockMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT m.id, m.stock_batch_id, m.from_location_id, m.to_location_id, m.type, m.quantity,
		       m.reference, m.note, m.idempotency_key, m.created_by, m.created_at
		FROM stock_movements m
		JOIN stock_batches b ON b.id = m.stock_batch_id
		WHERE b.product_id = $1`
	return r.list(query, "m.created_at", productID, from, to, limit, offset)
}

// SummarizeByProduct agrupa cantidades por tipo de movimiento en un rango de
// fechas (insumo del pronóstico de demanda).
func (r *StockMovementRepo) SummarizeByProduct(productID string, from, to *time.Time) ([]repository.MovementTypeTotal, error) {
	query := `
		SELECT m.type, COALESCE(SUM(m.quantity), 0), COUNT(*)
		FROM stock_movements m
		JOIN stock_batches b ON b.id = m.stock_batch_id
		WHERE b.product_id = $1`
	args := []any{productID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND m.created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND m.created_at <= $%d", pos)
		args = append(args, *to)
	}
	query += " GROUP BY m.type ORDER BY m.type"

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize by product: %w", err)
	}
	defer rows.Close()
	var totals []repository.MovementTypeTotal
	for rows.Next() {
		var t repository.MovementTypeTotal
		if err := rows.Scan(&t.Type, &t.TotalQty, &t.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *StockMovementRepo) list(query, col, id string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	args := []any{id}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND %s >= $%d", col, pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND %s <= $%d", col, pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY %s DESC LIMIT $%d OFFSET $%d", col, pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := r.scanMovement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *StockMovementRepo) scanOne(row pgx.Row) (*entity.StockMovement, error) {
	m, err := scanMovementFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *StockMovementRepo) scanMovement(rows pgx.Rows) (*entity.StockMovement, error) {
	m, err := scanMovementFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	return m, nil
}

func scanMovementFrom(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var fromLoc, toLoc, reference, note, idemKey, createdBy *string
	err := row.Scan(&m.ID, &m.StockBatchID, &fromLoc, &toLoc, &m.Type, &m.Quantity,
		&reference, &note, &idemKey, &createdBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.FromLocationID = deref(fromLoc)
	m.ToLocationID = deref(toLoc)
	m.Reference = deref(reference)
	m.Note = deref(note)
	m.IdempotencyKey = deref(idemKey)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
