package memory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)
var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)
var _ repository.LocationRepository = (*LocationRepo)(nil)
var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// ProductRepo vista del maestro de productos sobre el Store.
type ProductRepo struct {
	s *Store
}

// AddProduct siembra un producto (solo pruebas; el puerto del dominio es de lectura).
func (r *ProductRepo) AddProduct(p *entity.Product) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	clone := *p
	r.s.products[p.ID] = &clone
}

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Product
	for _, p := range r.s.products {
		clone := *p
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return paginate(list, limit, offset), nil
}

// StockBatchRepo vista de lotes sobre el Store.
type StockBatchRepo struct {
	s *Store
}

func (r *StockBatchRepo) Create(batch *entity.StockBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	clone := *batch
	r.s.batches[batch.ID] = &clone
	return nil
}

func (r *StockBatchRepo) GetByID(id string) (*entity.StockBatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	clone := *b
	return &clone, nil
}

func (r *StockBatchRepo) ListByProduct(productID string, limit, offset int) ([]*entity.StockBatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockBatch
	for _, b := range r.s.batches {
		if b.ProductID != productID {
			continue
		}
		clone := *b
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

// LocationRepo vista de ubicaciones sobre el Store.
type LocationRepo struct {
	s *Store
}

func (r *LocationRepo) Create(loc *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}
	clone := *loc
	r.s.locations[loc.ID] = &clone
	return nil
}

func (r *LocationRepo) GetByID(id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

func (r *LocationRepo) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Location
	for _, l := range r.s.locations {
		if l.WarehouseID != warehouseID {
			continue
		}
		clone := *l
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return paginate(list, limit, offset), nil
}

// WarehouseRepo vista de bodegas sobre el Store.
type WarehouseRepo struct {
	s *Store
}

func (r *WarehouseRepo) Create(wh *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if wh.ID == "" {
		wh.ID = uuid.New().String()
	}
	if wh.CreatedAt.IsZero() {
		wh.CreatedAt = time.Now().UTC()
	}
	clone := *wh
	r.s.warehouses[wh.ID] = &clone
	return nil
}

func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	clone := *w
	return &clone, nil
}

func (r *WarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Warehouse
	for _, w := range r.s.warehouses {
		clone := *w
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return paginate(list, limit, offset), nil
}
