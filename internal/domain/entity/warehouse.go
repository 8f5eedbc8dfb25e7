package entity

import "time"

// Warehouse bodega que agrupa ubicaciones.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}
