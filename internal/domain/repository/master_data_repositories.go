package repository

import "github.com/jhoicas/almacen-api/internal/domain/entity"

// ProductRepository lecturas de maestro de productos (el CRUD completo vive en
// otro servicio; el motor solo necesita confirmar existencia).
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	List(limit, offset int) ([]*entity.Product, error)
}

// LocationRepository persistencia de ubicaciones.
type LocationRepository interface {
	Create(loc *entity.Location) error
	GetByID(id string) (*entity.Location, error)
	ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.Location, error)
}

// WarehouseRepository persistencia de bodegas.
type WarehouseRepository interface {
	Create(wh *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	List(limit, offset int) ([]*entity.Warehouse, error)
}
