package memory

import (
	"sort"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.InventoryPositionRepository = (*PositionRepo)(nil)

// PositionRepo vista de posiciones sobre el Store.
type PositionRepo struct {
	s *Store
}

// Get devuelve la posición o una en cero si no existe.
func (r *PositionRepo) Get(stockBatchID, locationID string) (*entity.InventoryPosition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.positions[posKey(stockBatchID, locationID)]
	if !ok {
		return &entity.InventoryPosition{StockBatchID: stockBatchID, LocationID: locationID}, nil
	}
	clone := *p
	return &clone, nil
}

// GetForUpdate en memoria no bloquea filas; existe para satisfacer el puerto.
func (r *PositionRepo) GetForUpdate(stockBatchID, locationID string) (*entity.InventoryPosition, error) {
	return r.Get(stockBatchID, locationID)
}

func (r *PositionRepo) Upsert(pos *entity.InventoryPosition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *pos
	clone.UpdatedAt = time.Now().UTC()
	r.s.positions[posKey(pos.StockBatchID, pos.LocationID)] = &clone
	return nil
}

func (r *PositionRepo) ListByLocation(locationID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	return r.listWhere(func(p *entity.InventoryPosition) bool { return p.LocationID == locationID }, limit, offset)
}

func (r *PositionRepo) ListByBatch(stockBatchID string, limit, offset int) ([]*entity.InventoryPosition, error) {
	return r.listWhere(func(p *entity.InventoryPosition) bool { return p.StockBatchID == stockBatchID }, limit, offset)
}

func (r *PositionRepo) listWhere(match func(*entity.InventoryPosition) bool, limit, offset int) ([]*entity.InventoryPosition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.InventoryPosition
	for _, p := range r.s.positions {
		if !match(p) {
			continue
		}
		clone := *p
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].StockBatchID != list[j].StockBatchID {
			return list[i].StockBatchID < list[j].StockBatchID
		}
		return list[i].LocationID < list[j].LocationID
	})
	return paginate(list, limit, offset), nil
}
