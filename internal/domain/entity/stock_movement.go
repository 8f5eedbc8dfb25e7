package entity

import "time"

// Tipos de movimiento del libro de inventario.
const (
	MovementTypeReceipt     = "purchase_receipt" // entrada por recepción de compra
	MovementTypeDispatch    = "sale_issue"       // salida por despacho de venta
	MovementTypeAdjustment  = "adjustment"       // ajuste manual (+/-)
	MovementTypeTransferOut = "transfer_out"     // salida por traslado
	MovementTypeTransferIn  = "transfer_in"      // entrada por traslado
	MovementTypeReservation = "reservation"      // reserva (informativa)
	MovementTypeRelease     = "release"          // liberación de reserva
)

// StockMovement es un registro inmutable del libro de inventario: nunca se
// actualiza ni se borra una vez escrito. Las posiciones son derivables
// reproduciendo los movimientos en orden.
type StockMovement struct {
	ID             string
	StockBatchID   string
	FromLocationID string // vacío si no aplica (entradas)
	ToLocationID   string // vacío si no aplica (salidas)
	Type           string
	Quantity       int64  // siempre positiva; el signo lo da el tipo
	Reference      string // número de orden, motivo de ajuste, etc.
	Note           string
	IdempotencyKey string // vacío = sin deduplicación
	CreatedBy      string // UserID
	CreatedAt      time.Time
}
