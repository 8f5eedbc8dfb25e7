package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)
var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// PurchaseOrderRepo vista de órdenes de compra sobre el Store.
type PurchaseOrderRepo struct {
	s *Store
}

func (r *PurchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if po.ID == "" {
		po.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	po.CreatedAt = now
	po.UpdatedAt = now
	for _, it := range po.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.PurchaseOrderID = po.ID
	}
	r.s.purchaseOrders[po.ID] = clonePO(po)
	return nil
}

func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return nil, nil
	}
	return clonePO(po), nil
}

// GetForUpdate en memoria no bloquea filas; existe para satisfacer el puerto.
func (r *PurchaseOrderRepo) GetForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(id)
}

func (r *PurchaseOrderRepo) List(filter repository.OrderListFilter) ([]*entity.PurchaseOrder, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.PurchaseOrder
	for _, po := range r.s.purchaseOrders {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		if filter.PartyID != "" && po.SupplierID != filter.PartyID {
			continue
		}
		if filter.OrderNo != "" && po.PoNo != filter.OrderNo {
			continue
		}
		if !inRange(po.CreatedAt, filter.DateFrom, filter.DateTo) {
			continue
		}
		list = append(list, clonePO(po))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	total := len(list)
	return paginate(list, filter.Limit, filter.Offset), total, nil
}

func (r *PurchaseOrderRepo) UpdateStatus(id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return fmt.Errorf("purchase order %s: %w", id, domain.ErrNotFound)
	}
	clone := clonePO(po)
	clone.Status = status
	if status == entity.PoStatusOrdered && clone.PlacedAt == nil {
		now := time.Now().UTC()
		clone.PlacedAt = &now
	}
	clone.UpdatedAt = time.Now().UTC()
	r.s.purchaseOrders[id] = clone
	return nil
}

func (r *PurchaseOrderRepo) UpdateTotals(id string, total decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return fmt.Errorf("purchase order %s: %w", id, domain.ErrNotFound)
	}
	clone := clonePO(po)
	clone.TotalAmount = total
	clone.UpdatedAt = time.Now().UTC()
	r.s.purchaseOrders[id] = clone
	return nil
}

func (r *PurchaseOrderRepo) UpdateItem(item *entity.PurchaseOrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, po := range r.s.purchaseOrders {
		for i, it := range po.Items {
			if it.ID != item.ID {
				continue
			}
			clone := clonePO(po)
			updated := *item
			updated.PurchaseOrderID = id
			updated.QtyReceived = it.QtyReceived
			clone.Items[i] = &updated
			clone.UpdatedAt = time.Now().UTC()
			r.s.purchaseOrders[id] = clone
			return nil
		}
	}
	return fmt.Errorf("purchase order item %s: %w", item.ID, domain.ErrNotFound)
}

func (r *PurchaseOrderRepo) AddItemReceived(itemID string, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, po := range r.s.purchaseOrders {
		for i, it := range po.Items {
			if it.ID != itemID {
				continue
			}
			clone := clonePO(po)
			clone.Items[i].QtyReceived += delta
			clone.UpdatedAt = time.Now().UTC()
			r.s.purchaseOrders[id] = clone
			return nil
		}
	}
	return fmt.Errorf("purchase order item %s: %w", itemID, domain.ErrNotFound)
}

// SalesOrderRepo vista de órdenes de venta sobre el Store.
type SalesOrderRepo struct {
	s *Store
}

func (r *SalesOrderRepo) Create(so *entity.SalesOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if so.ID == "" {
		so.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	so.CreatedAt = now
	so.UpdatedAt = now
	for _, it := range so.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.SalesOrderID = so.ID
	}
	r.s.salesOrders[so.ID] = cloneSO(so)
	return nil
}

func (r *SalesOrderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	so, ok := r.s.salesOrders[id]
	if !ok {
		return nil, nil
	}
	return cloneSO(so), nil
}

// GetForUpdate en memoria no bloquea filas; existe para satisfacer el puerto.
func (r *SalesOrderRepo) GetForUpdate(id string) (*entity.SalesOrder, error) {
	return r.GetByID(id)
}

func (r *SalesOrderRepo) List(filter repository.OrderListFilter) ([]*entity.SalesOrder, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.SalesOrder
	for _, so := range r.s.salesOrders {
		if filter.Status != "" && so.Status != filter.Status {
			continue
		}
		if filter.PartyID != "" && so.CustomerID != filter.PartyID {
			continue
		}
		if filter.OrderNo != "" && so.SoNo != filter.OrderNo {
			continue
		}
		if !inRange(so.CreatedAt, filter.DateFrom, filter.DateTo) {
			continue
		}
		list = append(list, cloneSO(so))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	total := len(list)
	return paginate(list, filter.Limit, filter.Offset), total, nil
}

func (r *SalesOrderRepo) UpdateStatus(id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	so, ok := r.s.salesOrders[id]
	if !ok {
		return fmt.Errorf("sales order %s: %w", id, domain.ErrNotFound)
	}
	clone := cloneSO(so)
	clone.Status = status
	if status == entity.SoStatusApproved && clone.PlacedAt == nil {
		now := time.Now().UTC()
		clone.PlacedAt = &now
	}
	clone.UpdatedAt = time.Now().UTC()
	r.s.salesOrders[id] = clone
	return nil
}

func (r *SalesOrderRepo) UpdateTotals(id string, total decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	so, ok := r.s.salesOrders[id]
	if !ok {
		return fmt.Errorf("sales order %s: %w", id, domain.ErrNotFound)
	}
	clone := cloneSO(so)
	clone.TotalAmount = total
	clone.UpdatedAt = time.Now().UTC()
	r.s.salesOrders[id] = clone
	return nil
}

func (r *SalesOrderRepo) UpdateItem(item *entity.SalesOrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, so := range r.s.salesOrders {
		for i, it := range so.Items {
			if it.ID != item.ID {
				continue
			}
			clone := cloneSO(so)
			updated := *item
			updated.SalesOrderID = id
			updated.QtyFulfilled = it.QtyFulfilled
			clone.Items[i] = &updated
			clone.UpdatedAt = time.Now().UTC()
			r.s.salesOrders[id] = clone
			return nil
		}
	}
	return fmt.Errorf("sales order item %s: %w", item.ID, domain.ErrNotFound)
}

func (r *SalesOrderRepo) AddItemFulfilled(itemID string, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, so := range r.s.salesOrders {
		for i, it := range so.Items {
			if it.ID != itemID {
				continue
			}
			clone := cloneSO(so)
			clone.Items[i].QtyFulfilled += delta
			clone.UpdatedAt = time.Now().UTC()
			r.s.salesOrders[id] = clone
			return nil
		}
	}
	return fmt.Errorf("sales order item %s: %w", itemID, domain.ErrNotFound)
}

func clonePO(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	clone := *po
	clone.Items = make([]*entity.PurchaseOrderItem, len(po.Items))
	for i, it := range po.Items {
		itClone := *it
		clone.Items[i] = &itClone
	}
	return &clone
}

func cloneSO(so *entity.SalesOrder) *entity.SalesOrder {
	clone := *so
	clone.Items = make([]*entity.SalesOrderItem, len(so.Items))
	for i, it := range so.Items {
		itClone := *it
		clone.Items[i] = &itClone
	}
	return &clone
}
