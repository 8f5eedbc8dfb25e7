package entity

import "time"

// StockBatch es un lote recibible de un producto, opcionalmente fechado.
// Inmutable una vez creado; solo los movimientos afectan sus posiciones.
type StockBatch struct {
	ID        string
	ProductID string
	BatchNo   string
	MfgDate   *time.Time
	ExpDate   *time.Time
	CreatedAt time.Time
}
