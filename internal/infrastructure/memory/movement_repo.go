package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo vista de movimientos sobre el Store.
type MovementRepo struct {
	s *Store
}

// Create inserta el movimiento. Clave de idempotencia repetida para el mismo
// tipo devuelve domain.ErrDuplicate, igual que el índice único en PostgreSQL.
func (r *MovementRepo) Create(movement *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	if movement.IdempotencyKey != "" {
		k := idemKey(movement.IdempotencyKey, movement.Type)
		if _, ok := r.s.movementsByIdem[k]; ok {
			return fmt.Errorf("movement %s/%s: %w", movement.Type, movement.IdempotencyKey, domain.ErrDuplicate)
		}
		r.s.movementsByIdem[k] = movement.ID
	}
	clone := *movement
	r.s.movements[movement.ID] = &clone
	return nil
}

func (r *MovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

func (r *MovementRepo) GetByIdempotencyKey(key, movementType string) (*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.movementsByIdem[idemKey(key, movementType)]
	if !ok {
		return nil, nil
	}
	clone := *r.s.movements[id]
	return &clone, nil
}

func (r *MovementRepo) ListByBatch(stockBatchID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return r.listWhere(func(m *entity.StockMovement) bool {
		return m.StockBatchID == stockBatchID && inRange(m.CreatedAt, from, to)
	}, limit, offset)
}

func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return r.listWhere(func(m *entity.StockMovement) bool {
		b, ok := r.s.batches[m.StockBatchID]
		return ok && b.ProductID == productID && inRange(m.CreatedAt, from, to)
	}, limit, offset)
}

func (r *MovementRepo) SummarizeByProduct(productID string, from, to *time.Time) ([]repository.MovementTypeTotal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byType := map[string]*repository.MovementTypeTotal{}
	for _, m := range r.s.movements {
		b, ok := r.s.batches[m.StockBatchID]
		if !ok || b.ProductID != productID || !inRange(m.CreatedAt, from, to) {
			continue
		}
		t, ok := byType[m.Type]
		if !ok {
			t = &repository.MovementTypeTotal{Type: m.Type}
			byType[m.Type] = t
		}
		t.TotalQty += m.Quantity
		t.Count++
	}
	var totals []repository.MovementTypeTotal
	for _, k := range sortedKeys(byType) {
		totals = append(totals, *byType[k])
	}
	return totals, nil
}

func (r *MovementRepo) listWhere(match func(*entity.StockMovement) bool, limit, offset int) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if !match(m) {
			continue
		}
		clone := *m
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}
