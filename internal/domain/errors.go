package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInvalidState      = errors.New("estado no permite la operación")
	ErrQuantityExceeded  = errors.New("cantidad excede el saldo pendiente")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
)

// NotFoundError identifica el recurso exacto que no existe (orden, línea, lote, ubicación).
type NotFoundError struct {
	Resource string // "purchase_order", "sales_order", "order_item", "stock_batch", "location"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s no encontrado: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError lleva el estado actual y el requerido para construir mensajes precisos.
type InvalidStateError struct {
	Entity   string
	Current  string
	Required string // estados desde los que sí se permite la operación
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s en estado %q; la operación requiere %s", e.Entity, e.Current, e.Required)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// QuantityExceededError lleva la cantidad pedida y la pendiente de una línea.
type QuantityExceededError struct {
	ItemID    string
	Requested int64
	Remaining int64
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("cantidad %d excede el pendiente %d de la línea %s", e.Requested, e.Remaining, e.ItemID)
}

func (e *QuantityExceededError) Unwrap() error { return ErrQuantityExceeded }

// InsufficientStockError lleva la posición afectada y las cantidades en juego.
type InsufficientStockError struct {
	StockBatchID string
	LocationID   string
	Requested    int64
	Available    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en lote %s ubicación %s: disponible %d, solicitado %d",
		e.StockBatchID, e.LocationID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
