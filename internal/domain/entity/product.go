package entity

import "time"

// Product maestro de producto (solo lectura para el motor de inventario).
type Product struct {
	ID        string
	SKU       string
	Name      string
	Unit      string
	CreatedAt time.Time
}
