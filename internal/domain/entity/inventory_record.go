package entity

import "time"

// InventoryRecord existencia actual de un producto. Quantity nunca es negativa.
// Solo la modifican entradas completadas (+) y salidas completadas (−).
type InventoryRecord struct {
	ProductID     int64
	Quantity      int64
	LastUpdatedAt time.Time
}
