package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// WarehouseUseCase altas y consultas de bodegas y sus ubicaciones.
type WarehouseUseCase struct {
	repo    repository.WarehouseRepository
	locRepo repository.LocationRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository, locRepo repository.LocationRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, locRepo: locRepo}
}

// Create crea una nueva bodega.
func (uc *WarehouseUseCase) Create(in dto.CreateWarehouseRequest) (*dto.WarehouseDTO, error) {
	wh := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(wh); err != nil {
		return nil, err
	}
	out := dto.FromWarehouse(wh)
	return &out, nil
}

// GetByID obtiene una bodega por ID, o NotFound.
func (uc *WarehouseUseCase) GetByID(id string) (*dto.WarehouseDTO, error) {
	wh, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, &domain.NotFoundError{Resource: "warehouse", ID: id}
	}
	out := dto.FromWarehouse(wh)
	return &out, nil
}

// List lista bodegas paginadas.
func (uc *WarehouseUseCase) List(limit, offset int) ([]dto.WarehouseDTO, error) {
	whs, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WarehouseDTO, 0, len(whs))
	for _, w := range whs {
		out = append(out, dto.FromWarehouse(w))
	}
	return out, nil
}

// CreateLocation crea una ubicación dentro de una bodega existente.
func (uc *WarehouseUseCase) CreateLocation(warehouseID string, in dto.CreateLocationRequest) (*dto.LocationDTO, error) {
	wh, err := uc.repo.GetByID(warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, &domain.NotFoundError{Resource: "warehouse", ID: warehouseID}
	}
	loc := &entity.Location{
		ID:          uuid.New().String(),
		WarehouseID: warehouseID,
		Code:        in.Code,
		Name:        in.Name,
		CreatedAt:   time.Now(),
	}
	if err := uc.locRepo.Create(loc); err != nil {
		return nil, err
	}
	out := dto.FromLocation(loc)
	return &out, nil
}

// ListLocations lista las ubicaciones de una bodega.
func (uc *WarehouseUseCase) ListLocations(warehouseID string, limit, offset int) ([]dto.LocationDTO, error) {
	locs, err := uc.locRepo.ListByWarehouse(warehouseID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationDTO, 0, len(locs))
	for _, l := range locs {
		out = append(out, dto.FromLocation(l))
	}
	return out, nil
}
