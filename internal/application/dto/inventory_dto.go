package dto

import "time"

// StockResponse existencia actual de un producto (GET /api/inventory/:productId).
type StockResponse struct {
	ProductID     int64      `json:"product_id"`
	Quantity      int64      `json:"quantity"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"` // nil si el producto nunca se movió
}
