// Package order contiene las máquinas de estado de órdenes como funciones puras
// del avance de sus líneas, sin tocar almacenamiento.
package order

import "github.com/jhoicas/almacen-api/internal/domain/entity"

// LineProgress avance de una línea: cantidad pedida vs. completada.
type LineProgress struct {
	Ordered   int64
	Fulfilled int64
}

// PurchaseStatusFromProgress deriva el estado de una orden de compra a partir
// del avance de recepción. Nunca regresa un estado anterior:
//   - received: todas las líneas completas
//   - partial:  alguna línea con avance, pero no todas completas
//   - si no hay avance, conserva el estado actual
func PurchaseStatusFromProgress(current string, lines []LineProgress) string {
	all, any := progress(lines)
	switch {
	case all:
		return entity.PoStatusReceived
	case any:
		return entity.PoStatusPartial
	default:
		return current
	}
}

// SalesStatusFromProgress deriva el estado de una orden de venta a partir del
// avance de despacho. processing nunca regresa a approved.
func SalesStatusFromProgress(current string, lines []LineProgress) string {
	all, any := progress(lines)
	switch {
	case all:
		return entity.SoStatusShipped
	case any:
		return entity.SoStatusProcessing
	default:
		return current
	}
}

func progress(lines []LineProgress) (allComplete, anyProgress bool) {
	if len(lines) == 0 {
		return false, false
	}
	allComplete = true
	for _, l := range lines {
		if l.Fulfilled < l.Ordered {
			allComplete = false
		}
		if l.Fulfilled > 0 {
			anyProgress = true
		}
	}
	return allComplete, anyProgress
}

// PurchaseReceivable indica si la orden admite recepciones en su estado actual.
func PurchaseReceivable(status string) bool {
	return status == entity.PoStatusOrdered || status == entity.PoStatusPartial
}

// PurchaseCancellable indica si la orden de compra admite cancelación.
// received y cancelled son terminales.
func PurchaseCancellable(status string) bool {
	return status != entity.PoStatusReceived && status != entity.PoStatusCancelled
}

// SalesFulfillable indica si la orden de venta admite despachos en su estado actual.
func SalesFulfillable(status string) bool {
	return status == entity.SoStatusApproved || status == entity.SoStatusProcessing
}

// SalesCancellable indica si la orden de venta admite cancelación.
// shipped y cancelled son terminales.
func SalesCancellable(status string) bool {
	return status != entity.SoStatusShipped && status != entity.SoStatusCancelled
}
