package dto

import (
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// MovementRequest body para recepción, despacho, reserva y liberación.
// La clave de idempotencia viaja en el body; vacía = sin deduplicación.
type MovementRequest struct {
	StockBatchID   string `json:"stock_batch_id" validate:"required"`
	LocationID     string `json:"location_id" validate:"required"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	Reference      string `json:"reference,omitempty"`
	Note           string `json:"note,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AdjustRequest body para POST /api/inventory/adjustments. Delta con signo;
// la referencia es obligatoria.
type AdjustRequest struct {
	StockBatchID   string `json:"stock_batch_id" validate:"required"`
	LocationID     string `json:"location_id" validate:"required"`
	Delta          int64  `json:"delta" validate:"required"`
	Reference      string `json:"reference" validate:"required"`
	Note           string `json:"note,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	StockBatchID   string `json:"stock_batch_id" validate:"required"`
	FromLocationID string `json:"from_location_id" validate:"required"`
	ToLocationID   string `json:"to_location_id" validate:"required"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	Note           string `json:"note,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// MovementDTO movimiento del libro en respuestas.
type MovementDTO struct {
	ID             string    `json:"id"`
	StockBatchID   string    `json:"stock_batch_id"`
	FromLocationID string    `json:"from_location_id,omitempty"`
	ToLocationID   string    `json:"to_location_id,omitempty"`
	Type           string    `json:"type"`
	Quantity       int64     `json:"quantity"`
	Reference      string    `json:"reference,omitempty"`
	Note           string    `json:"note,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// MovementResponse respuesta de las operaciones de inventario. Deduplicated
// indica que la clave ya se había aplicado y se devuelve el movimiento original.
type MovementResponse struct {
	Movement     MovementDTO `json:"movement"`
	Deduplicated bool        `json:"deduplicated"`
}

// TransferResponse un traslado produce el par transfer_out/transfer_in.
type TransferResponse struct {
	OutMovement  MovementDTO  `json:"out_movement"`
	InMovement   *MovementDTO `json:"in_movement,omitempty"`
	Deduplicated bool         `json:"deduplicated"`
}

// PositionDTO posición de inventario en respuestas.
type PositionDTO struct {
	StockBatchID string    `json:"stock_batch_id"`
	LocationID   string    `json:"location_id"`
	AvailableQty int64     `json:"available_qty"`
	ReservedQty  int64     `json:"reserved_qty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MovementHistoryRequest query para GET /api/inventory/movements.
type MovementHistoryRequest struct {
	ProductID string `query:"product_id" validate:"required"`
	StartDate string `query:"start_date"` // YYYY-MM-DD
	EndDate   string `query:"end_date"`   // YYYY-MM-DD
	PageRequest
}

// MovementTypeTotalDTO agregado por tipo de movimiento (GET /api/inventory/movements/summary).
type MovementTypeTotalDTO struct {
	Type     string `json:"type"`
	TotalQty int64  `json:"total_qty"`
	Count    int64  `json:"count"`
}

// FromMovement mapea la entidad al DTO.
func FromMovement(m *entity.StockMovement) MovementDTO {
	return MovementDTO{
		ID:             m.ID,
		StockBatchID:   m.StockBatchID,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		Reference:      m.Reference,
		Note:           m.Note,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// FromPosition mapea la entidad al DTO.
func FromPosition(p *entity.InventoryPosition) PositionDTO {
	return PositionDTO{
		StockBatchID: p.StockBatchID,
		LocationID:   p.LocationID,
		AvailableQty: p.AvailableQty,
		ReservedQty:  p.ReservedQty,
		UpdatedAt:    p.UpdatedAt,
	}
}

// FromMovementTotals mapea los agregados al DTO.
func FromMovementTotals(totals []repository.MovementTypeTotal) []MovementTypeTotalDTO {
	out := make([]MovementTypeTotalDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, MovementTypeTotalDTO{Type: t.Type, TotalQty: t.TotalQty, Count: t.Count})
	}
	return out
}
