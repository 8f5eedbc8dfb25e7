package entity

import "time"

// Location ubicación física dentro de una bodega (estante, zona, muelle).
type Location struct {
	ID          string
	WarehouseID string
	Code        string
	Name        string
	CreatedAt   time.Time
}
