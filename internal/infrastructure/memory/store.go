package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/purchase"
	"github.com/jhoicas/almacen-api/internal/application/sales"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// Ensure Store implements the three application runners.
var _ inventory.TxRunner = (*Store)(nil)
var _ purchase.TxRunner = (*Store)(nil)
var _ sales.TxRunner = (*Store)(nil)

// Store estado en memoria compartido por todos los repositorios del paquete.
// Pensado para pruebas y modo demo: las "transacciones" toman un snapshot del
// estado y lo restauran si el callback falla, reproduciendo el rollback de la
// BD. No serializa goroutines concurrentes dentro de una transacción.
type Store struct {
	mu sync.RWMutex

	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	locations  map[string]*entity.Location
	batches    map[string]*entity.StockBatch

	positions       map[string]*entity.InventoryPosition // clave: batchID|locationID
	movements       map[string]*entity.StockMovement
	movementsByIdem map[string]string // clave: idemKey|tipo -> movement ID

	purchaseOrders map[string]*entity.PurchaseOrder
	salesOrders    map[string]*entity.SalesOrder
}

// NewStore construye un Store vacío.
func NewStore() *Store {
	return &Store{
		products:        map[string]*entity.Product{},
		warehouses:      map[string]*entity.Warehouse{},
		locations:       map[string]*entity.Location{},
		batches:         map[string]*entity.StockBatch{},
		positions:       map[string]*entity.InventoryPosition{},
		movements:       map[string]*entity.StockMovement{},
		movementsByIdem: map[string]string{},
		purchaseOrders:  map[string]*entity.PurchaseOrder{},
		salesOrders:     map[string]*entity.SalesOrder{},
	}
}

// Vistas por repositorio sobre el mismo estado.

func (s *Store) Movements() *MovementRepo           { return &MovementRepo{s: s} }
func (s *Store) Positions() *PositionRepo           { return &PositionRepo{s: s} }
func (s *Store) Batches() *StockBatchRepo           { return &StockBatchRepo{s: s} }
func (s *Store) Products() *ProductRepo             { return &ProductRepo{s: s} }
func (s *Store) Locations() *LocationRepo           { return &LocationRepo{s: s} }
func (s *Store) Warehouses() *WarehouseRepo         { return &WarehouseRepo{s: s} }
func (s *Store) PurchaseOrders() *PurchaseOrderRepo { return &PurchaseOrderRepo{s: s} }
func (s *Store) SalesOrders() *SalesOrderRepo       { return &SalesOrderRepo{s: s} }

// --- transacciones -----------------------------------------------------------

// Run ejecuta fn y, si falla, restaura el estado previo.
func (s *Store) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
) error) error {
	snap := s.take()
	if err := fn(s.Movements(), s.Positions()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunPurchase ejecuta fn con repos de inventario y órdenes de compra; restaura en error.
func (s *Store) RunPurchase(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	poRepo repository.PurchaseOrderRepository,
) error) error {
	snap := s.take()
	if err := fn(s.Movements(), s.Positions(), s.PurchaseOrders()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunSales ejecuta fn con repos de inventario y órdenes de venta; restaura en error.
func (s *Store) RunSales(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	soRepo repository.SalesOrderRepository,
) error) error {
	snap := s.take()
	if err := fn(s.Movements(), s.Positions(), s.SalesOrders()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	positions       map[string]*entity.InventoryPosition
	movements       map[string]*entity.StockMovement
	movementsByIdem map[string]string
	purchaseOrders  map[string]*entity.PurchaseOrder
	salesOrders     map[string]*entity.SalesOrder
}

// take copia los mapas mutables. Los valores almacenados se tratan como
// inmutables (cada escritura guarda un clon), así que la copia es superficial.
func (s *Store) take() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		positions:       copyMap(s.positions),
		movements:       copyMap(s.movements),
		movementsByIdem: copyMap(s.movementsByIdem),
		purchaseOrders:  copyMap(s.purchaseOrders),
		salesOrders:     copyMap(s.salesOrders),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = snap.positions
	s.movements = snap.movements
	s.movementsByIdem = snap.movementsByIdem
	s.purchaseOrders = snap.purchaseOrders
	s.salesOrders = snap.salesOrders
}

// --- helpers -----------------------------------------------------------------

func posKey(stockBatchID, locationID string) string {
	return stockBatchID + "|" + locationID
}

func idemKey(key, movementType string) string {
	return key + "|" + movementType
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
