package entity

import "time"

// InventoryPosition es el estado de cantidades de un lote en una ubicación.
// Se crea en el primer movimiento sobre el par (lote, ubicación) y nunca se
// borra, aunque quede en cero, para conservar historial y unicidad.
// Invariante: AvailableQty >= 0 y ReservedQty >= 0 en todo momento.
type InventoryPosition struct {
	StockBatchID string
	LocationID   string
	AvailableQty int64
	ReservedQty  int64
	UpdatedAt    time.Time
}
